package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/beevik/etree"

	"dh-release/internal/ports"
	"dh-release/internal/types"
)

// NexusCatalogAdapter reads maven-metadata.xml of an artifact.
type NexusCatalogAdapter struct {
	baseURL string
	getter  httpGetter
}

func NewNexusCatalogAdapter(baseURL string, opts HTTPOptions) NexusCatalogAdapter {
	return NexusCatalogAdapter{baseURL: strings.TrimRight(baseURL, "/"), getter: newHTTPGetter(opts)}
}

var _ ports.ReleaseCatalogPort = NexusCatalogAdapter{}

func (a NexusCatalogAdapter) Versions(ctx context.Context, pkg types.PackageDescriptor) ([]string, error) {
	url := fmt.Sprintf("%s/%s/maven-metadata.xml", a.baseURL, pkg.Name)
	var versions []string
	err := a.getter.get(ctx, url, nil, func(body io.Reader) error {
		parsed, err := parseMavenMetadata(body)
		versions = parsed
		return err
	})
	if err != nil {
		if errors.Is(err, errHTTPNotFound) {
			return nil, types.UnresolvedPackageError(pkg.Name, "no maven metadata", err)
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read maven metadata of %s", pkg.Name)).
			WithCause(err)
	}
	return versions, nil
}

// parseMavenMetadata returns the listed versions, with <release> first
// when present and not already listed.
func parseMavenMetadata(body io.Reader) ([]string, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, err
	}
	var versions []string
	seen := map[string]struct{}{}
	add := func(value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if _, ok := seen[value]; ok {
			return
		}
		seen[value] = struct{}{}
		versions = append(versions, value)
	}
	if release := doc.FindElement("//versioning/release"); release != nil {
		add(release.Text())
	}
	for _, version := range doc.FindElements("//versioning/versions/version") {
		add(version.Text())
	}
	return versions, nil
}
