package ports

type InstallRecordPort interface {
	CopyManifest(manifestPath string, instDir string) (string, error)
	WriteInstallArgs(instDir string, args []string) (bool, error)
	ReadInstallArgs(path string) ([]string, error)
}
