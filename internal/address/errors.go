package address

import "fmt"

// BuildFileName is the reserved declaration filename. A spec path whose last
// component starts with this prefix can never identify a target directory.
const BuildFileName = "BUILD"

// InvalidSpecPathError indicates a malformed path component in an address
// spec, such as `.` or `..` segments or an absolute path.
type InvalidSpecPathError struct {
	Spec   string
	Reason string
}

func (e *InvalidSpecPathError) Error() string {
	return fmt.Sprintf("invalid spec path %q: %s", e.Spec, e.Reason)
}

// InvalidTargetNameError indicates a malformed target or generated-name
// component, or a top-level file address that fails to name its owner.
type InvalidTargetNameError struct {
	Spec   string
	Reason string
}

func (e *InvalidTargetNameError) Error() string {
	return fmt.Sprintf("invalid target name in %q: %s", e.Spec, e.Reason)
}
