package owners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/fsutil"
	"github.com/williamscs/pants/internal/target"
)

func libKind() *target.Kind {
	return &target.Kind{
		Name: "lib",
		Fields: []target.FieldDef{
			{Name: target.FieldSources, Type: cty.List(cty.String)},
			{Name: "handler", Type: cty.String},
		},
		SourcesFieldKind:     "lib-sources",
		SecondaryOwnerFields: []string{"handler"},
	}
}

func libGenKind() *target.Kind {
	k := libKind()
	k.Name = "lib_gen"
	k.Generator = true
	k.FineGrained = true
	return k
}

type declSpec struct {
	kind    *target.Kind
	sources []string
	handler string
}

func buildIndex(t *testing.T, files map[string]string, decls map[string]declSpec) *target.Index {
	t.Helper()
	ix := target.NewIndex(fsutil.NewMemSnapshot(files))
	for spec, d := range decls {
		in, err := address.Parse(spec, "")
		require.NoError(t, err)
		addr, err := in.DirToAddress()
		require.NoError(t, err)
		values := map[string]cty.Value{}
		if d.sources != nil {
			vals := make([]cty.Value, len(d.sources))
			for i, s := range d.sources {
				vals[i] = cty.StringVal(s)
			}
			values[target.FieldSources] = cty.ListVal(vals)
		}
		if d.handler != "" {
			values["handler"] = cty.StringVal(d.handler)
		}
		tgt, err := target.New(d.kind, addr, values)
		require.NoError(t, err)
		require.NoError(t, ix.Add(tgt, addr.SpecPath()+"/BUILD.hcl"))
	}
	return ix
}

func ownerSpecs(t *testing.T, ix *target.Index, req Request) []string {
	t.Helper()
	addrs, err := NewFinder(ix).Owners(context.Background(), req)
	require.NoError(t, err)
	var out []string
	for _, a := range addrs {
		out = append(out, a.Spec())
	}
	return out
}

func TestOwnersOfLiveFiles(t *testing.T) {
	t.Parallel()
	ix := buildIndex(t,
		map[string]string{"pkg/a.txt": "", "pkg/b.txt": "", "other/c.txt": ""},
		map[string]declSpec{
			"pkg:gen":     {kind: libGenKind(), sources: []string{"*.txt"}},
			"other:plain": {kind: libKind(), sources: []string{"*.txt"}},
		})

	assert.Equal(t, []string{"pkg/a.txt:gen"},
		ownerSpecs(t, ix, Request{Sources: []string{"pkg/a.txt"}}),
		"a live file under a fine-grained generator is owned by its generated target")

	assert.Equal(t, []string{"other:plain"},
		ownerSpecs(t, ix, Request{Sources: []string{"other/c.txt"}}))
}

func TestOwnersOfDeletedFiles(t *testing.T) {
	t.Parallel()
	ix := buildIndex(t,
		map[string]string{"pkg/a.txt": ""},
		map[string]declSpec{
			"pkg:gen": {kind: libGenKind(), sources: []string{"*.txt"}},
		})

	// pkg/gone.txt no longer exists, so no generated target covers it. The
	// generator's original glob still does.
	assert.Equal(t, []string{"pkg:gen"},
		ownerSpecs(t, ix, Request{Sources: []string{"pkg/gone.txt"}}))
}

func TestSecondaryOwnerFields(t *testing.T) {
	t.Parallel()
	ix := buildIndex(t,
		map[string]string{"app/main.txt": "", "app/other.txt": ""},
		map[string]declSpec{
			"app:bin": {kind: libKind(), handler: "main.txt"},
			"app:gen": {kind: libGenKind(), sources: []string{"*.txt"}},
		})

	got := ownerSpecs(t, ix, Request{Sources: []string{"app/main.txt"}})
	assert.Equal(t, []string{"app/main.txt:gen", "app:bin"}, got,
		"the handler field claims the file alongside the sources owner")
}

func TestBuildFileOwnership(t *testing.T) {
	t.Parallel()
	ix := buildIndex(t,
		map[string]string{"pkg/a.txt": "", "pkg/BUILD.hcl": ""},
		map[string]declSpec{
			"pkg:t": {kind: libKind(), sources: []string{"*.txt"}},
		})

	assert.Equal(t, []string{"pkg:t"},
		ownerSpecs(t, ix, Request{Sources: []string{"pkg/BUILD.hcl"}}),
		"editing a build file implicates every target it declares")
}

func TestMultipleOwners(t *testing.T) {
	t.Parallel()
	ix := buildIndex(t,
		map[string]string{"pkg/a.txt": ""},
		map[string]declSpec{
			"pkg:one": {kind: libKind(), sources: []string{"a.txt"}},
			"pkg:two": {kind: libKind(), sources: []string{"*.txt"}},
		})

	assert.Equal(t, []string{"pkg:one", "pkg:two"},
		ownerSpecs(t, ix, Request{Sources: []string{"pkg/a.txt"}}))
}

func TestUnmatchedBehavior(t *testing.T) {
	t.Parallel()
	ix := buildIndex(t, map[string]string{"pkg/a.txt": ""}, map[string]declSpec{
		"pkg:t": {kind: libKind(), sources: []string{"*.txt"}},
	})

	t.Run("ignore", func(t *testing.T) {
		t.Parallel()
		got := ownerSpecs(t, ix, Request{
			Sources:   []string{"pkg/a.txt", "nowhere/x.txt"},
			Unmatched: IgnoreUnmatched,
		})
		assert.Equal(t, []string{"pkg:t"}, got)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		_, err := NewFinder(ix).Owners(context.Background(), Request{
			Sources:   []string{"pkg/a.txt", "nowhere/x.txt", "also/gone.txt"},
			Unmatched: ErrorUnmatched,
		})
		var unowned *UnownedFilesError
		require.ErrorAs(t, err, &unowned)
		assert.Equal(t, []string{"also/gone.txt", "nowhere/x.txt"}, unowned.Paths)
	})
}
