//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"dh-release/internal/adapters"
	"dh-release/internal/app"
	"dh-release/internal/types"
	"dh-release/tests/testutil"
)

// artifactServerScript lays out a Nexus style maven tree and a GitHub
// style archive tree, then serves both over plain HTTP.
const artifactServerScript = `
import io, os, tarfile, zipfile
root = "/srv/repo"

def artifact(name, version, script):
    base = os.path.join(root, "org", "lsst", name)
    os.makedirs(os.path.join(base, version), exist_ok=True)
    path = os.path.join(base, version, "%s-%s-dist.zip" % (name, version))
    with zipfile.ZipFile(path, "w") as z:
        info = zipfile.ZipInfo("%s-%s/bin/CCSbootstrap.sh" % (name, version))
        info.external_attr = 0o100755 << 16
        z.writestr(info, script)
        z.writestr("%s-%s/lib/%s.jar" % (name, version, name), "jar")

def metadata(name, versions):
    base = os.path.join(root, "org", "lsst", name)
    os.makedirs(base, exist_ok=True)
    items = "".join("<version>%s</version>" % v for v in versions)
    with open(os.path.join(base, "maven-metadata.xml"), "w") as f:
        f.write("<metadata><versioning><release>%s</release><versions>%s</versions></versioning></metadata>" % (versions[-1], items))

def archive(org, name, version):
    base = os.path.join(root, org, name, "archive")
    os.makedirs(base, exist_ok=True)
    with tarfile.open(os.path.join(base, "%s.tar.gz" % version), "w:gz") as t:
        data = b"setup()\n"
        info = tarfile.TarInfo("%s-%s/setup.py" % (name, version))
        info.size = len(data)
        t.addfile(info, io.BytesIO(data))

artifact("org-lsst-ccs-subsystem-demo", "1.0.0", "#!/bin/bash\necho demo\n")
metadata("org-lsst-ccs-subsystem-demo", ["0.9.0", "1.0.0", "1.1.0"])
archive("lsst-camera-dh", "lcatr-schema", "0.6.0")
os.execvp("python", ["python", "-m", "http.server", "8081", "--directory", root])
`

func startArtifactServer(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8081/tcp"},
		Cmd:          []string{"python", "-c", artifactServerScript},
		WaitingFor:   wait.ForListeningPort("8081/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8081/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return endpoint, cleanup
}

func newServiceFor(t *testing.T, endpoint string) app.Service {
	t.Helper()
	policy := testutil.WritePolicy(t, fmt.Sprintf(`sources:
  github_url: %s
  orgs: [lsst-camera-dh]
  discover_orgs: false
  nexus_url: %s/org/lsst
`, endpoint, endpoint))
	service, err := app.NewService(app.ServiceOptions{
		PolicyPath: policy,
		StagingDir: t.TempDir(),
		HTTP:       adapters.HTTPOptions{Timeout: 30 * time.Second, Retries: 3, RetryDelay: 200 * time.Millisecond, UserAgent: "dh-install/integration"},
	})
	require.NoError(t, err)
	return service
}

func TestCCSArtifactInstallWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startArtifactServer(ctx, t)
	t.Cleanup(cleanup)
	service := newServiceFor(t, endpoint)

	manifest := testutil.WriteManifest(t, `[ccs]
org-lsst-ccs-subsystem-demo = 1.0.0
executable.demo = org-lsst-ccs-subsystem-demo
`)
	instDir := filepath.Join(t.TempDir(), "ccs")

	result, err := service.Install(ctx, app.InstallRequest{ManifestPath: manifest, CCSInstDir: instDir})
	require.NoError(t, err)
	require.Equal(t, 2, result.Reports[0].Sections[0].Mutations())

	testutil.RequireLink(t, filepath.Join(instDir, "org-lsst-ccs-subsystem-demo"), "org-lsst-ccs-subsystem-demo-1.0.0")
	testutil.RequireLink(t, filepath.Join(instDir, "bin", "demo"), "../org-lsst-ccs-subsystem-demo/bin/CCSbootstrap.sh")
	script, err := os.ReadFile(filepath.Join(instDir, "bin", "demo"))
	require.NoError(t, err)
	require.Equal(t, "#!/bin/bash\necho demo\n", string(script))
	require.FileExists(t, filepath.Join(instDir, "org-lsst-ccs-subsystem-demo-1.0.0", "lib", "org-lsst-ccs-subsystem-demo.jar"))
	require.FileExists(t, filepath.Join(instDir, "setup.sh"))

	again, err := service.Install(ctx, app.InstallRequest{ManifestPath: manifest, CCSInstDir: instDir})
	require.NoError(t, err)
	require.Equal(t, 0, again.Reports[0].Sections[0].Mutations())

	outdated, err := service.Outdated(ctx, app.OutdatedRequest{ManifestPath: manifest})
	require.NoError(t, err)
	require.Len(t, outdated.Reports, 1)
	require.Len(t, outdated.Reports[0].Entries, 1)
	entry := outdated.Reports[0].Entries[0]
	require.NoError(t, entry.Err)
	require.Equal(t, "1.1.0", entry.Latest)
	require.True(t, entry.Outdated)
}

func TestCCSMissingArtifactWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startArtifactServer(ctx, t)
	t.Cleanup(cleanup)
	service := newServiceFor(t, endpoint)

	manifest := testutil.WriteManifest(t, "[ccs]\norg-lsst-ccs-subsystem-demo = 1.0.0\norg-lsst-ccs-subsystem-ghost = 2.0.0\n")
	instDir := t.TempDir()

	result, err := service.Install(ctx, app.InstallRequest{ManifestPath: manifest, CCSInstDir: instDir})
	require.Error(t, err)
	require.True(t, types.IsUnresolved(err))
	failed := result.Reports[0].Sections[0].Failed()
	require.Len(t, failed, 1)
	require.Equal(t, "org-lsst-ccs-subsystem-ghost", failed[0].Package.Name)
	testutil.RequireLink(t, filepath.Join(instDir, "org-lsst-ccs-subsystem-demo"), "org-lsst-ccs-subsystem-demo-1.0.0")
}

func TestArchiveDownloadAndUnpackWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startArtifactServer(ctx, t)
	t.Cleanup(cleanup)

	staging := filepath.Join(t.TempDir(), "lcatr-schema.tar.gz")
	downloader := adapters.NewHTTPDownloadAdapter(nil, adapters.HTTPOptions{Timeout: 30 * time.Second, Retries: 2})
	require.NoError(t, downloader.Download(ctx, endpoint+"/lsst-camera-dh/lcatr-schema/archive/0.6.0.tar.gz", staging))

	dest := filepath.Join(t.TempDir(), "lcatr-schema-0.6.0")
	require.NoError(t, adapters.NewArchiveUnpackAdapter().UnpackTarGz(staging, dest))
	data, err := os.ReadFile(filepath.Join(dest, "setup.py"))
	require.NoError(t, err)
	require.Equal(t, "setup()\n", string(data))
}
