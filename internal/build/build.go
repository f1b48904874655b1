package build

var (
	Version = "dev"
	AppName = "techdata"
)
