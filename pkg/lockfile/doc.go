// Package lockfile reads and writes uptix.lock.
//
// The lock file is a JSON object mapping dependency keys to entries:
//
//	{
//	  "postgres:15": {
//	    "metadata": {
//	      "name": "postgres",
//	      "selected_version": "15",
//	      "resolved_version": "15.2",
//	      "friendly_version": "15.2",
//	      "timestamp": "2024-01-15T10:30:00Z",
//	      "dep_type": "docker",
//	      "description": "Docker image postgres"
//	    },
//	    "lock": "sha256:..."
//	  }
//	}
//
// Keys are written in sorted order with two-space indentation so the file
// diffs cleanly. Older lock files stored a bare digest string per key;
// those legacy entries are read, listed and written back unchanged.
//
// A [File] keeps every entry as raw JSON. Entries that are not merged
// during a run are serialized from the same bytes they were read from.
package lockfile
