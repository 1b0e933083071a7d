package types

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Message prefixes identify the error kinds of the installer. Callers match
// on errbuilder code plus prefix, the same way the CLI maps exit codes.
const (
	MsgInvalidManifest = "invalid manifest"
	MsgMissingSection  = "manifest section not found"
	MsgManifestSchema  = "manifest schema violation"
	MsgUnresolved      = "unresolved package"
	MsgExternalCommand = "external command failed"
	MsgSymlinkMutation = "symlink mutation failed"
)

func InvalidManifestError(path string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s: %s", MsgInvalidManifest, path)).
		WithCause(cause)
}

func MissingSectionError(path string, section string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s: [%s] in %s", MsgMissingSection, section, path))
}

func ManifestSchemaError(section string, problems []string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s: [%s] %s", MsgManifestSchema, section, strings.Join(problems, "; ")))
}

func UnresolvedPackageError(name string, detail string, cause error) error {
	msg := fmt.Sprintf("%s: %q", MsgUnresolved, name)
	if detail != "" {
		msg += " (" + detail + ")"
	}
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(msg)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

func ExternalCommandError(command string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("%s: %s", MsgExternalCommand, command)).
		WithCause(cause)
}

func SymlinkMutationError(link string, detail string, cause error) error {
	code := errbuilder.CodeInternal
	if errors.Is(cause, fs.ErrPermission) {
		code = errbuilder.CodePermissionDenied
	}
	return errbuilder.New().
		WithCode(code).
		WithMsg(fmt.Sprintf("%s: %s: %s", MsgSymlinkMutation, link, detail)).
		WithCause(cause)
}

// ErrorMessage returns the outermost errbuilder message, falling back to
// the plain error text.
func ErrorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

func IsMissingSection(err error) bool {
	return hasKind(err, errbuilder.CodeNotFound, MsgMissingSection)
}

func IsUnresolved(err error) bool {
	return hasKind(err, errbuilder.CodeNotFound, MsgUnresolved)
}

func hasKind(err error, code errbuilder.ErrCode, prefix string) bool {
	if err == nil {
		return false
	}
	return errbuilder.CodeOf(err) == code && strings.HasPrefix(ErrorMessage(err), prefix)
}
