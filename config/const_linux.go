package config

const (
	_etc = "/usr/local/etc/uhppoted"
	_var = "/usr/local/var/uhppoted"

	DEFAULT_CONFIG      = _etc + "/wordpress/uhppoted-app-wordpress.toml"
	DEFAULT_WORKDIR     = _var + "/wordpress"
	DEFAULT_CREDENTIALS = _etc + "/wordpress/.google/credentials.json"
)
