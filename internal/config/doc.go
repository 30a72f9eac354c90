// Package config loads and validates weft.json, the project
// configuration file.
//
// A minimal weft.json:
//
//	{
//	  "name": "myapp",
//	  "server": { "host": "0.0.0.0", "port": 8080 },
//	  "cache": { "backend": "memory", "freshness": "30s" },
//	  "stream": { "concurrency": 8 },
//	  "dev": { "reload": true }
//	}
//
// Missing fields take defaults; Validate reports structured errors
// with codes in the config category.
package config
