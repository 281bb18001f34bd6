package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/target"
)

func TestRegisterKindPanicsOnDuplicate(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterKind(&target.Kind{Name: "thing"})
	assert.Panics(t, func() { r.RegisterKind(&target.Kind{Name: "thing"}) })
}

func TestInjectionAncestry(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterFieldKindParent("child-deps", "base-deps")

	hook := func(context.Context, InjectionRequest) ([]address.Address, error) { return nil, nil }
	r.RegisterInjection("base-deps", &RegisteredInjection{Name: "base", Fn: hook})
	r.RegisterInjection("child-deps", &RegisteredInjection{Name: "child", Fn: hook})

	var names []string
	for _, reg := range r.InjectionsFor("child-deps") {
		names = append(names, reg.Name)
	}
	assert.Equal(t, []string{"child", "base"}, names, "own hooks fire before ancestor hooks")

	names = nil
	for _, reg := range r.InjectionsFor("base-deps") {
		names = append(names, reg.Name)
	}
	assert.Equal(t, []string{"base"}, names, "ancestry is not inherited downwards")
}

func TestFieldKindParentPanicsOnDuplicate(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterFieldKindParent("a", "b")
	assert.Panics(t, func() { r.RegisterFieldKindParent("a", "c") })
}

func TestCodegenSelection(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterCodegen(&RegisteredCodegen{
		Name: "thrift-to-avro", ForSourcesKinds: []string{"thrift"}, OutputKind: "avro",
	})

	got, err := r.CodegenFor("thrift", "avro")
	require.NoError(t, err)
	assert.Equal(t, "thrift-to-avro", got.Name)

	got, err = r.CodegenFor("proto", "avro")
	require.NoError(t, err)
	assert.Nil(t, got, "no generator registered for that input kind")

	r.RegisterCodegen(&RegisteredCodegen{
		Name: "other-thrift-to-avro", ForSourcesKinds: []string{"thrift", "proto"}, OutputKind: "avro",
	})
	_, err = r.CodegenFor("thrift", "avro")
	var ambiguous *AmbiguousCodegenImplementationsError
	require.ErrorAs(t, err, &ambiguous)
	assert.Contains(t, err.Error(), "thrift-to-avro (output kind avro)")
	assert.Contains(t, err.Error(), "other-thrift-to-avro (output kind avro)")
}

func TestImplementationSelection(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterImplementation(&Implementation{
		Name: "check-sources", Operation: "check", RequiredFields: []string{target.FieldSources},
	})

	withSources := &target.Kind{Name: "lib", Fields: []target.FieldDef{
		{Name: target.FieldSources, Type: cty.List(cty.String)},
	}}
	withoutSources := &target.Kind{Name: "alias"}

	im, err := r.ImplementationFor("check", withSources)
	require.NoError(t, err)
	assert.Equal(t, "check-sources", im.Name)

	im, err = r.ImplementationFor("check", withoutSources)
	require.NoError(t, err)
	assert.Nil(t, im)

	r.RegisterImplementation(&Implementation{Name: "check-anything", Operation: "check"})
	_, err = r.ImplementationFor("check", withSources)
	var ambiguous *AmbiguousImplementationsError
	require.ErrorAs(t, err, &ambiguous)
	assert.Contains(t, err.Error(), "check-anything, check-sources")

	assert.Panics(t, func() {
		r.RegisterImplementation(&Implementation{Name: "check-anything", Operation: "check"})
	})
}

func TestApplicableTargets(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterImplementation(&Implementation{
		Name: "fmt-sources", Operation: "fmt", RequiredFields: []string{target.FieldSources},
	})

	withSources := &target.Kind{Name: "lib", Fields: []target.FieldDef{
		{Name: target.FieldSources, Type: cty.List(cty.String)},
	}}
	withoutSources := &target.Kind{Name: "alias"}

	a := mustTarget(t, withSources, "pkg", "a")
	b := mustTarget(t, withoutSources, "pkg", "b")

	got := r.ApplicableTargets("fmt", []*target.Target{a, b})
	require.Len(t, got, 1)
	assert.Equal(t, "pkg:a", got[0].Address().Spec())
}

func mustTarget(t *testing.T, kind *target.Kind, specPath, name string) *target.Target {
	t.Helper()
	addr := address.MustNew(specPath, address.WithTargetName(name))
	tgt, err := target.New(kind, addr, nil)
	require.NoError(t, err)
	return tgt
}
