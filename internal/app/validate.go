package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"dh-release/internal/core"
	"dh-release/internal/types"
)

// Validate loads every section with its schema and classifies every
// download entry without touching the filesystem. All problems are
// collected before failing.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	if strings.TrimSpace(req.ManifestPath) == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest path is required")
	}
	store := s.manifestStore()
	names, err := store.Sections(req.ManifestPath)
	if err != nil {
		return ValidateResult{}, err
	}
	result := ValidateResult{Sections: names}
	classifier := s.classifier()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		section, err := store.Load(req.ManifestPath, name)
		if err != nil {
			result.Problems = append(result.Problems, types.ErrorMessage(err))
			continue
		}
		result.Entries += section.Len()
		if name == s.Policy.Sections.JobHarness && section.Text(s.Policy.JobHarness.HarnessedJobsKey) == "" {
			result.Problems = append(result.Problems, fmt.Sprintf("[%s] %s: required", name, s.Policy.JobHarness.HarnessedJobsKey))
		}
		if name != s.Policy.Sections.CCS {
			continue
		}
		plan, err := core.PlanSection(section, s.Policy.Entries)
		if err != nil {
			result.Problems = append(result.Problems, types.ErrorMessage(err))
			continue
		}
		for _, entry := range plan.Downloads {
			pkg := entry.Package
			protocol, stripped, err := classifier.Classify(pkg.RawName)
			if err != nil {
				result.Problems = append(result.Problems, fmt.Sprintf("[%s] %s", name, types.ErrorMessage(err)))
				continue
			}
			pkg.Protocol = protocol
			pkg.Name = stripped
			if protocol == types.ProtocolArtifact && pkg.Version == "" {
				result.Problems = append(result.Problems, fmt.Sprintf("[%s] %s: artifact needs a version", name, pkg.RawName))
			}
			result.Downloads = append(result.Downloads, pkg)
		}
	}
	if len(result.Problems) > 0 {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: %s", types.MsgInvalidManifest, strings.Join(result.Problems, "; ")))
	}
	return result, nil
}
