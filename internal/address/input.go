package address

import (
	"fmt"
	"path"
	"strings"
)

// Input is the unresolved result of parsing a spec string, before it is bound
// to a directory or a file on disk.
type Input struct {
	PathComponent      string
	TargetComponent    string
	GeneratedComponent string
}

// Parse splits a spec string into its path, target, and generated components.
//
// relativeTo supplies the directory for sibling-relative forms (`:name`,
// `#generated`, `./path`); pass "" when the spec must be self-contained.
// subprojectRoots are directories that act as embedded build roots: when
// relativeTo falls under one, the parsed path is rewritten into that root.
func Parse(spec string, relativeTo string, subprojectRoots ...string) (Input, error) {
	pathComp := spec
	targetComp, generatedComp := "", ""
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		pathComp = spec[:i]
		rest := spec[i+1:]
		if j := strings.IndexByte(rest, '#'); j >= 0 {
			targetComp, generatedComp = rest[:j], rest[j+1:]
		} else {
			targetComp = rest
		}
		if targetComp == "" {
			return Input{}, &InvalidTargetNameError{Spec: spec, Reason: "expected a target name after `:`"}
		}
	} else if j := strings.IndexByte(spec, '#'); j >= 0 {
		pathComp, generatedComp = spec[:j], spec[j+1:]
	}
	if strings.ContainsRune(spec, '#') && generatedComp == "" {
		return Input{}, &InvalidTargetNameError{Spec: spec, Reason: "expected a generated name after `#`"}
	}

	subproject := ""
	if relativeTo != "" && len(subprojectRoots) > 0 {
		subproject = longestDirPrefix(relativeTo, subprojectRoots)
	}
	normalizedRelativeTo := relativeTo
	if subproject != "" {
		normalizedRelativeTo = strings.TrimPrefix(strings.TrimPrefix(relativeTo, subproject), "/")
	}

	if strings.HasPrefix(pathComp, "./") && normalizedRelativeTo != "" {
		pathComp = path.Join(normalizedRelativeTo, pathComp[2:])
	}
	if pathComp == "" && normalizedRelativeTo != "" {
		pathComp = normalizedRelativeTo
	}
	pathComp = strings.TrimPrefix(pathComp, "//")
	if subproject != "" {
		if pathComp != "" {
			pathComp = path.Join(subproject, pathComp)
		} else {
			pathComp = path.Clean(subproject)
		}
	}

	for _, comp := range pathComponents(pathComp) {
		if comp == "" || comp == "." || comp == ".." {
			return Input{}, &InvalidSpecPathError{
				Spec:   spec,
				Reason: fmt.Sprintf("path component %q is not allowed", comp),
			}
		}
	}

	return Input{
		PathComponent:      pathComp,
		TargetComponent:    targetComp,
		GeneratedComponent: generatedComp,
	}, nil
}

// DirToAddress binds the input as a directory-target address.
func (in Input) DirToAddress() (Address, error) {
	var opts []Option
	if in.TargetComponent != "" {
		opts = append(opts, WithTargetName(in.TargetComponent))
	}
	if in.GeneratedComponent != "" {
		opts = append(opts, WithGeneratedName(in.GeneratedComponent))
	}
	return New(in.PathComponent, opts...)
}

// FileToAddress binds the input as a file-level address, assuming the path
// component names a file on disk. A target component with N leading `../`
// segments names an owning target declared N directories above the file.
func (in Input) FileToAddress() (Address, error) {
	if in.GeneratedComponent != "" {
		return Address{}, &InvalidTargetNameError{
			Spec:   in.spec(),
			Reason: "file addresses cannot carry a generated name",
		}
	}
	dir, file := splitFile(in.PathComponent)
	if in.TargetComponent == "" {
		if dir == "" {
			return Address{}, &InvalidTargetNameError{
				Spec: in.spec(),
				Reason: fmt.Sprintf(
					"files in the build root must name their owning target explicitly, such as `%s:owner`",
					in.PathComponent),
			}
		}
		return New(dir, WithRelativeFilePath(file))
	}

	owner := in.TargetComponent
	parents := 0
	for strings.HasPrefix(owner, "../") {
		parents++
		owner = owner[3:]
	}
	if owner == "" || strings.ContainsRune(owner, '/') || strings.Contains(owner, "..") {
		return Address{}, &InvalidTargetNameError{
			Spec:   in.spec(),
			Reason: "the owning target of a file must be declared in the file's directory or above it",
		}
	}
	specPath, rel := dir, file
	for i := 0; i < parents; i++ {
		if specPath == "" {
			return Address{}, &InvalidTargetNameError{
				Spec:   in.spec(),
				Reason: "the owning target reference walks above the build root",
			}
		}
		var seg string
		if j := strings.LastIndexByte(specPath, '/'); j >= 0 {
			seg, specPath = specPath[j+1:], specPath[:j]
		} else {
			seg, specPath = specPath, ""
		}
		rel = seg + "/" + rel
	}
	return New(specPath, WithTargetName(owner), WithRelativeFilePath(rel))
}

// spec reassembles the components for error messages.
func (in Input) spec() string {
	s := in.PathComponent
	if in.TargetComponent != "" {
		s += ":" + in.TargetComponent
	}
	if in.GeneratedComponent != "" {
		s += "#" + in.GeneratedComponent
	}
	return s
}

func splitFile(p string) (dir, file string) {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return "", p
}

func longestDirPrefix(p string, roots []string) string {
	best := ""
	for _, root := range roots {
		root = strings.TrimSuffix(root, "/")
		if root == "" {
			continue
		}
		if (p == root || strings.HasPrefix(p, root+"/")) && len(root) > len(best) {
			best = root
		}
	}
	return best
}
