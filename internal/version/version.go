package version

// Set at build time:
//
//	go build -ldflags "-X github.com/relaykit/relayctl/internal/version.Version=v0.3.0 -X github.com/relaykit/relayctl/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "development"
	Commit  = "unknown"
)

func GetVersion() string {
	return Version
}

func GetCommit() string {
	return Commit
}
