package specs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/fsutil"
	"github.com/williamscs/pants/internal/owners"
	"github.com/williamscs/pants/internal/registry"
	"github.com/williamscs/pants/internal/target"
)

func libKind() *target.Kind {
	return &target.Kind{
		Name: "lib",
		Fields: []target.FieldDef{
			{Name: target.FieldSources, Type: cty.List(cty.String)},
		},
		SourcesFieldKind: "lib-sources",
	}
}

func binKind() *target.Kind {
	return &target.Kind{Name: "bin"}
}

func testIndex(t *testing.T) *target.Index {
	t.Helper()
	ix := target.NewIndex(fsutil.NewMemSnapshot(map[string]string{
		"pkg/a.txt":   "",
		"pkg/b.txt":   "",
		"other/c.txt": "",
	}))
	add := func(kind *target.Kind, specPath, name string, sources []string) {
		values := map[string]cty.Value{}
		if sources != nil {
			vals := make([]cty.Value, len(sources))
			for i, s := range sources {
				vals[i] = cty.StringVal(s)
			}
			values[target.FieldSources] = cty.ListVal(vals)
		}
		tgt, err := target.New(kind, address.MustNew(specPath, address.WithTargetName(name)), values)
		require.NoError(t, err)
		require.NoError(t, ix.Add(tgt, specPath+"/BUILD.hcl"))
	}
	add(libKind(), "pkg", "lib", []string{"*.txt"})
	add(binKind(), "pkg", "bin", nil)
	add(libKind(), "other", "lib", []string{"*.txt"})
	return ix
}

func TestClassify(t *testing.T) {
	t.Parallel()
	exists := func(p string) bool { return p == "pkg/a.txt" }
	cases := []struct {
		raw  string
		want Kind
	}{
		{"//pkg:lib", AddressSpec},
		{"pkg:lib", AddressSpec},
		{"pkg#gen", AddressSpec},
		{"pkg", AddressSpec},
		{"pkg/a.txt", FileLiteralSpec},
		{"pkg/missing.txt", AddressSpec},
		{"pkg/*.txt", FileGlobSpec},
		{"pkg/**/*.txt", FileGlobSpec},
		{"pkg/a?.txt", FileGlobSpec},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.raw, exists), tc.raw)
	}
}

func resolveSpecs(t *testing.T, raw []string, opts Options) ([]string, error) {
	t.Helper()
	res, err := NewMatcher(testIndex(t)).Resolve(context.Background(), raw, opts)
	if err != nil {
		return nil, err
	}
	var specs []string
	for _, a := range res.Addresses {
		specs = append(specs, a.Spec())
	}
	return specs, nil
}

func TestResolveAddressSpecs(t *testing.T) {
	t.Parallel()
	got, err := resolveSpecs(t, []string{"//pkg:lib", "pkg:bin"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg:lib", "pkg:bin"}, got)

	_, err = resolveSpecs(t, []string{"//pkg:nope"}, Options{})
	var unknown *target.UnknownAddressError
	require.ErrorAs(t, err, &unknown)
}

func TestResolveFileLiteral(t *testing.T) {
	t.Parallel()
	got, err := resolveSpecs(t, []string{"pkg/a.txt"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg:lib"}, got)
}

func TestResolveGlob(t *testing.T) {
	t.Parallel()
	got, err := resolveSpecs(t, []string{"*/*.txt"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"other:lib", "pkg:lib"}, got)

	got, err = resolveSpecs(t, []string{"nowhere/*.txt"}, Options{})
	require.NoError(t, err)
	assert.Empty(t, got, "globs that match nothing resolve silently to nothing")
}

func TestResolveDeduplicatesAcrossSpecs(t *testing.T) {
	t.Parallel()
	got, err := resolveSpecs(t, []string{"pkg/a.txt", "//pkg:lib", "pkg/*.txt"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg:lib"}, got)
}

func TestUnownedLiteralBehavior(t *testing.T) {
	t.Parallel()
	ix := target.NewIndex(fsutil.NewMemSnapshot(map[string]string{"loose.txt": ""}))

	_, err := NewMatcher(ix).Resolve(context.Background(), []string{"loose.txt"},
		Options{UnmatchedLiteral: owners.ErrorUnmatched})
	var unowned *owners.UnownedFilesError
	require.ErrorAs(t, err, &unowned)

	res, err := NewMatcher(ix).Resolve(context.Background(), []string{"loose.txt"},
		Options{UnmatchedLiteral: owners.IgnoreUnmatched})
	require.NoError(t, err)
	assert.Empty(t, res.Addresses)
}

func TestExpectOne(t *testing.T) {
	t.Parallel()
	kind := binKind()
	mk := func(name string) *target.Target {
		tgt, err := target.New(kind, address.MustNew("pkg", address.WithTargetName(name)), nil)
		require.NoError(t, err)
		return tgt
	}

	got, err := ExpectOne([]*target.Target{mk("only")})
	require.NoError(t, err)
	assert.Equal(t, "pkg:only", got.Address().Spec())

	got, err = ExpectOne(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ExpectOne([]*target.Target{mk("a"), mk("b")})
	var tooMany *TooManyTargetsError
	require.ErrorAs(t, err, &tooMany)
	assert.Contains(t, err.Error(), "found 2: pkg:a, pkg:b")
}

func TestNoApplicableTargetsErrorVariants(t *testing.T) {
	t.Parallel()
	reg := registry.New()
	reg.RegisterKind(libKind())
	reg.RegisterKind(binKind())
	reg.RegisterImplementation(&registry.Implementation{
		Name: "fmt-lib", Operation: "fmt", RequiredFields: []string{target.FieldSources},
	})

	bin, err := target.New(binKind(), address.MustNew("pkg", address.WithTargetName("bin")), nil)
	require.NoError(t, err)

	t.Run("wrong kind targets are named", func(t *testing.T) {
		t.Parallel()
		res := &Resolution{AddressSpecs: []string{"//pkg:bin"}}
		_, err := ApplicableTargets(reg, "fmt", res, []*target.Target{bin})
		var noApplicable *NoApplicableTargetsError
		require.ErrorAs(t, err, &noApplicable)
		assert.Contains(t, err.Error(), "address specs //pkg:bin")
		assert.Contains(t, err.Error(), "inapplicable kinds: bin")
	})

	t.Run("message names both spec families", func(t *testing.T) {
		t.Parallel()
		res := &Resolution{AddressSpecs: []string{"//pkg:bin"}, FilesystemSpecs: []string{"pkg/a.txt"}}
		_, err := ApplicableTargets(reg, "fmt", res, nil)
		var noApplicable *NoApplicableTargetsError
		require.ErrorAs(t, err, &noApplicable)
		assert.Contains(t, err.Error(), "address specs //pkg:bin")
		assert.Contains(t, err.Error(), "file arguments pkg/a.txt")
		assert.NotContains(t, err.Error(), "inapplicable kinds")
	})

	t.Run("supported kinds and follow-up are suggested", func(t *testing.T) {
		t.Parallel()
		res := &Resolution{AddressSpecs: []string{"//pkg:bin"}}
		_, err := ApplicableTargets(reg, "fmt", res, []*target.Target{bin})
		var noApplicable *NoApplicableTargetsError
		require.ErrorAs(t, err, &noApplicable)
		assert.Equal(t, []string{"lib"}, noApplicable.ApplicableKinds,
			"only kinds declaring the required fields support the operation")
		assert.Contains(t, err.Error(), "The fmt operation works with these target kinds: lib")
		assert.Contains(t, err.Error(), "Run `pants targets`")
	})

	t.Run("filesystem specs only", func(t *testing.T) {
		t.Parallel()
		res := &Resolution{FilesystemSpecs: []string{"pkg/a.txt"}}
		_, err := ApplicableTargets(reg, "fmt", res, nil)
		require.ErrorContains(t, err, "no applicable targets matched the file arguments pkg/a.txt for fmt")
	})

	t.Run("applicable targets pass through", func(t *testing.T) {
		t.Parallel()
		lib, err := target.New(libKind(), address.MustNew("pkg", address.WithTargetName("lib")), nil)
		require.NoError(t, err)
		got, err := ApplicableTargets(reg, "fmt", &Resolution{}, []*target.Target{lib, bin})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "pkg:lib", got[0].Address().Spec())
	})
}
