package app

import (
	"github.com/spf13/afero"

	"dh-release/internal/adapters"
	"dh-release/internal/core"
	"dh-release/internal/policies"
	"dh-release/internal/ports"
	"dh-release/internal/types"
)

type Service struct {
	Manifest        ports.ManifestSourcePort
	FS              ports.LinkFSPort
	Commands        ports.CommandPort
	Git             ports.SourceControlPort
	Downloader      ports.DownloaderPort
	Unpacker        ports.UnpackerPort
	Staging         ports.StagingPort
	Locator         ports.RepoLocatorPort
	SetupWriter     ports.SetupWriterPort
	Probe           ports.ProbePort
	Records         ports.InstallRecordPort
	Inspector       ports.InspectorPort
	TagCatalog      ports.ReleaseCatalogPort
	ArtifactCatalog ports.ReleaseCatalogPort
	Policy          types.Policy
}

type ServiceOptions struct {
	PolicyPath string
	StagingDir string
	HTTP       adapters.HTTPOptions
	// DiscoverOrgs overrides the policy's discover_orgs when set.
	DiscoverOrgs *bool
}

func NewService(opts ServiceOptions) (Service, error) {
	policy, err := adapters.NewPolicyFileAdapter().LoadPolicy(opts.PolicyPath)
	if err != nil {
		return Service{}, err
	}
	if err := policies.ValidateProtocolPolicy(policy.Protocols); err != nil {
		return Service{}, err
	}
	if opts.DiscoverOrgs != nil {
		policy.Sources.DiscoverOrgs = *opts.DiscoverOrgs
	}
	if opts.HTTP.Token == "" {
		opts.HTTP.Token = policy.Sources.GitHubToken
	}
	if policy.Sources.GitHubToken == "" {
		policy.Sources.GitHubToken = opts.HTTP.Token
	}
	osFS := afero.NewOsFs()
	runner := adapters.NewExecCommandAdapter()
	locator := adapters.NewGitHubLocatorAdapter(policy.Sources, opts.HTTP)
	setup := adapters.NewSetupFileAdapter(osFS)
	return Service{
		Manifest:        adapters.NewIniManifestAdapter(),
		FS:              adapters.NewOSLinkFSAdapter(),
		Commands:        runner,
		Git:             adapters.NewGitSourceAdapter(runner),
		Downloader:      adapters.NewHTTPDownloadAdapter(osFS, opts.HTTP),
		Unpacker:        adapters.NewArchiveUnpackAdapter(),
		Staging:         adapters.NewStagingDirAdapter(opts.StagingDir),
		Locator:         locator,
		SetupWriter:     setup,
		Probe:           setup,
		Records:         adapters.NewInstallRecordAdapter(osFS),
		Inspector:       adapters.NewInstallInspectorAdapter(policy.Entries.BinDir),
		TagCatalog:      adapters.NewGitHubTagCatalogAdapter(policy.Sources, locator, opts.HTTP),
		ArtifactCatalog: adapters.NewNexusCatalogAdapter(policy.Sources.NexusURL, opts.HTTP),
		Policy:          policy,
	}, nil
}

func (s Service) manifestStore() core.ManifestStore {
	return core.NewManifestStore(s.Manifest, core.DefaultSchemas(s.Policy.Sections))
}

func (s Service) classifier() policies.ProtocolTable {
	return policies.NewProtocolTable(s.Policy.Protocols)
}

func (s Service) binder() core.SymlinkBinder {
	return core.NewSymlinkBinder(s.FS)
}

func (s Service) fetcher() core.PackageFetcher {
	return core.PackageFetcher{
		FS:         s.FS,
		Binder:     s.binder(),
		Git:        s.Git,
		Locator:    s.Locator,
		Downloader: s.Downloader,
		Unpacker:   s.Unpacker,
		Staging:    s.Staging,
		Protocols:  s.Policy.Protocols,
		Sources:    s.Policy.Sources,
	}
}

func (s Service) orchestrator() core.Orchestrator {
	return core.Orchestrator{
		Manifest:   s.manifestStore(),
		Classifier: s.classifier(),
		Fetcher:    s.fetcher(),
		Binder:     s.binder(),
		FS:         s.FS,
		Entries:    s.Policy.Entries,
	}
}
