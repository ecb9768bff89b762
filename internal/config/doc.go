// Package config provides configuration parsing for the thin client.
//
// The configuration is stored in thinclient.json. Environment variables
// prefixed with THINCLIENT_ override file values, and command-line flags
// override both.
//
// # Configuration File Structure
//
//	{
//	  "endpoint": "ws://localhost:4000/ws/1",
//	  "rootTag": "div",
//	  "keyAttribute": "key",
//	  "faultPolicy": "halt",
//	  "transport": {
//	    "handshakeTimeout": "10s",
//	    "writeTimeout": "5s",
//	    "pingInterval": "30s",
//	    "sendQueue": 64
//	  },
//	  "log": {"level": "info", "format": "text"},
//	  "journal": {"path": "session.db"},
//	  "snapshot": {"dir": "snapshots", "bucket": "", "prefix": "desync/"},
//	  "metrics": {"addr": ":9090", "namespace": "thinclient"}
//	}
package config
