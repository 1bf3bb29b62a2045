package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
}

type MStorageConfig struct {
	DBType   string          `yaml:"db_type"` // "postgres" or "sqlite"
	DBPath   string          `yaml:"db_path"` // sqlite file path
	Database MDatabaseConfig `yaml:"database"`
}

// MDatabaseConfig carries the Postgres credential bundle. Every field can be
// overridden from the environment (STOCKS_DB_*), so the YAML file does not
// need to hold real secrets.
type MDatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLCA    string `yaml:"ssl_ca"` // path to the CA certificate, enforces verify-full
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	BaseURL           string `yaml:"base_url"`
	DefaultRangeYears int    `yaml:"default_range_years"`
}
