package address

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

const (
	bannedTargetNameChars    = `@!?/\:=#`
	bannedGeneratedNameChars = `@!?:=#`
)

// Address is the canonical, immutable identifier of a target. The zero value
// is not a valid address; construct one via New or by binding an Input.
//
// Addresses are comparable: two addresses are equal iff all normalized
// components are equal, so they may be used directly as map keys.
type Address struct {
	specPath         string
	targetName       string // empty when the default (basename of specPath) applies
	generatedName    string
	relativeFilePath string
}

// Option configures an optional Address component.
type Option func(*Address)

// WithTargetName sets an explicit target name. A name equal to the default
// (the last component of the spec path) is normalized away.
func WithTargetName(name string) Option {
	return func(a *Address) { a.targetName = name }
}

// WithGeneratedName marks the address as a target generated under the given
// sub-identifier. Mutually exclusive with WithRelativeFilePath.
func WithGeneratedName(name string) Option {
	return func(a *Address) { a.generatedName = name }
}

// WithRelativeFilePath marks the address as a file-level target for the given
// path relative to the spec path. Mutually exclusive with WithGeneratedName.
func WithRelativeFilePath(p string) Option {
	return func(a *Address) { a.relativeFilePath = p }
}

// New constructs and validates an Address.
func New(specPath string, opts ...Option) (Address, error) {
	a := Address{specPath: specPath}
	for _, opt := range opts {
		opt(&a)
	}

	for _, comp := range pathComponents(specPath) {
		if comp == "" || comp == "." || comp == ".." {
			return Address{}, &InvalidSpecPathError{
				Spec:   specPath,
				Reason: fmt.Sprintf("path component %q is not allowed", comp),
			}
		}
	}
	if specPath != "" && strings.HasPrefix(basename(specPath), BuildFileName) {
		return Address{}, &InvalidSpecPathError{
			Spec: specPath,
			Reason: fmt.Sprintf(
				"%s is a reserved declaration filename and cannot be a directory", basename(specPath)),
		}
	}

	if a.generatedName != "" && a.relativeFilePath != "" {
		return Address{}, &InvalidTargetNameError{
			Spec:   specPath,
			Reason: "a generated name and a relative file path cannot both be set",
		}
	}

	// Normalize away a target name equal to the implicit default.
	if a.targetName != "" && a.targetName == basename(specPath) {
		a.targetName = ""
	}
	if a.targetName == "" && specPath == "" {
		return Address{}, &InvalidTargetNameError{
			Spec:   "//",
			Reason: "addresses in the build root must include a target name",
		}
	}
	if a.targetName != "" && strings.ContainsAny(a.targetName, bannedTargetNameChars) {
		return Address{}, &InvalidTargetNameError{
			Spec:   a.targetName,
			Reason: fmt.Sprintf("target names cannot contain any of `%s`", bannedTargetNameChars),
		}
	}
	if a.generatedName != "" && strings.ContainsAny(a.generatedName, bannedGeneratedNameChars) {
		return Address{}, &InvalidTargetNameError{
			Spec:   a.generatedName,
			Reason: fmt.Sprintf("generated names cannot contain any of `%s`", bannedGeneratedNameChars),
		}
	}
	return a, nil
}

// MustNew is New but panics on invalid input. Intended for statically known
// addresses, chiefly in tests.
func MustNew(specPath string, opts ...Option) Address {
	a, err := New(specPath, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// SpecPath returns the directory path of the declaration, "" for the root.
func (a Address) SpecPath() string { return a.specPath }

// TargetName returns the explicit target name, or the default (the last
// component of the spec path) when none was given.
func (a Address) TargetName() string {
	if a.targetName != "" {
		return a.targetName
	}
	return basename(a.specPath)
}

// IsDefaultTarget reports whether the target name is the implicit default.
func (a Address) IsDefaultTarget() bool { return a.targetName == "" }

// GeneratedName returns the generated sub-identifier, "" when absent.
func (a Address) GeneratedName() string { return a.generatedName }

// RelativeFilePath returns the file path relative to the spec path, "" when
// this is not a file-level address.
func (a Address) RelativeFilePath() string { return a.relativeFilePath }

// IsFileTarget reports whether this is a file-level address.
func (a Address) IsFileTarget() bool { return a.relativeFilePath != "" }

// IsGeneratedTarget reports whether this address names a target produced by a
// generator, in either the `#generated` or the file-level form.
func (a Address) IsGeneratedTarget() bool {
	return a.generatedName != "" || a.relativeFilePath != ""
}

// Filename returns the full path of the file a file-level address names.
// It panics when called on a non-file address.
func (a Address) Filename() string {
	if a.relativeFilePath == "" {
		panic(fmt.Sprintf("only file addresses have a filename: %s", a.Spec()))
	}
	return path.Join(a.specPath, a.relativeFilePath)
}

// MaybeConvertToTargetGenerator strips the generated name or relative file
// path, returning the owning generator's address. Already-plain addresses are
// returned unchanged.
func (a Address) MaybeConvertToTargetGenerator() Address {
	if !a.IsGeneratedTarget() {
		return a
	}
	return Address{specPath: a.specPath, targetName: a.targetName}
}

// MaybeConvertToGeneratedTarget rewrites a file-level address into the
// equivalent `#generated` form. Non-file addresses are returned unchanged.
func (a Address) MaybeConvertToGeneratedTarget() Address {
	if a.relativeFilePath == "" {
		return a
	}
	return Address{specPath: a.specPath, targetName: a.targetName, generatedName: a.relativeFilePath}
}

// CreateGenerated derives the address of a target this generator produces
// under the given sub-identifier. The receiver must be a plain address.
func (a Address) CreateGenerated(generatedName string) Address {
	if a.IsGeneratedTarget() {
		panic(fmt.Sprintf("cannot generate from a generated address: %s", a.Spec()))
	}
	return Address{specPath: a.specPath, targetName: a.targetName, generatedName: generatedName}
}

// CreateFile derives the file-level address this generator produces for the
// given relative file path. The receiver must be a plain address.
func (a Address) CreateFile(relativeFilePath string) Address {
	if a.IsGeneratedTarget() {
		panic(fmt.Sprintf("cannot generate from a generated address: %s", a.Spec()))
	}
	return Address{specPath: a.specPath, targetName: a.targetName, relativeFilePath: relativeFilePath}
}

// Spec returns the canonical string rendering, parseable back into an
// equivalent Input.
func (a Address) Spec() string {
	prefix := ""
	if a.specPath == "" {
		prefix = "//"
	}
	if a.relativeFilePath != "" {
		file := prefix + path.Join(a.specPath, a.relativeFilePath)
		parents := strings.Count(a.relativeFilePath, "/")
		if parents == 0 && a.targetName == "" {
			return file
		}
		return file + ":" + strings.Repeat("../", parents) + a.TargetName()
	}
	s := prefix + a.specPath
	if a.targetName != "" {
		s += ":" + a.targetName
	}
	if a.generatedName != "" {
		s += "#" + a.generatedName
	}
	return s
}

// PathSafeSpec renders the address using only characters that are safe in a
// filesystem path, for use as an on-disk cache key. Each directory level the
// rendering folds away contributes one `@` before the owning target name.
func (a Address) PathSafeSpec() string {
	sanitize := func(s string) string { return strings.ReplaceAll(s, "/", ".") }
	if a.relativeFilePath != "" {
		parents := strings.Count(a.relativeFilePath, "/")
		p := sanitize(a.specPath) + "." + sanitize(a.relativeFilePath)
		if parents == 0 && a.targetName == "" {
			return p
		}
		sep := "."
		if parents > 0 {
			sep = strings.Repeat("@", parents)
		}
		return p + sep + a.TargetName()
	}
	p := sanitize(a.specPath)
	if a.targetName != "" {
		p += "." + a.targetName
	}
	if a.generatedName != "" {
		p += "@" + sanitize(a.generatedName)
	}
	return p
}

// String implements fmt.Stringer, returning the canonical spec.
func (a Address) String() string { return a.Spec() }

// Less imposes the deterministic ordering used everywhere stable output is
// required: lexicographic on the canonical spec.
func (a Address) Less(other Address) bool { return a.Spec() < other.Spec() }

// Sort sorts addresses in place into the canonical deterministic order.
func Sort(addrs []Address) {
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
}

func basename(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func pathComponents(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
