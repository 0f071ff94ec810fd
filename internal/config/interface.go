package config

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// Format is the rendering of accessor results
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// IsValid returns whether the format is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatText, FormatCSV, FormatYAML:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (f Format) String() string {
	return string(f)
}

// Cluster is a named CPU set from the [clusters] table
type Cluster struct {
	Name string
	CPUs []int
}
