// Package config loads the terminator tool configuration from YAML.
//
// A minimal file only names what differs from the defaults:
//
//	platform_version: "1.18.0"
//	paths:
//	  sites: /etc/nginx/sites-enabled
//	store:
//	  data_dir: ${STATE_DIRECTORY:-/var/lib/terminator}
//	  key_file: /etc/terminator/store.key
//	log:
//	  level: debug
//
// Path values may reference environment variables as ${VAR} or
// ${VAR:-default}.
package config
