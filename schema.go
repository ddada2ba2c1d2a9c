package main

// manifestSchemaJSON is the JSON Schema for ams-compose.yaml, printed by
// `ams-compose schema` for editor integration and CI linting.
const manifestSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "ams-compose manifest",
  "type": "object",
  "properties": {
    "library_root": { "type": "string" },
    "imports": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["repo", "ref", "source_path"],
        "properties": {
          "repo": { "type": "string" },
          "ref": { "type": "string" },
          "source_path": { "type": "string" },
          "local_path": { "type": "string" },
          "checkin": { "type": "boolean" },
          "ignore_patterns": { "type": "array", "items": { "type": "string" } },
          "license": { "type": "string" }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

// lockSchemaJSON is the JSON Schema for .ams-compose.lock.
const lockSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "ams-compose lock file",
  "type": "object",
  "required": ["schema_version", "libraries"],
  "properties": {
    "schema_version": { "type": "integer" },
    "libraries": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["repo", "ref", "source_path", "local_path", "checkin", "commit", "checksum"],
        "properties": {
          "repo": { "type": "string" },
          "ref": { "type": "string" },
          "source_path": { "type": "string" },
          "local_path": { "type": "string" },
          "checkin": { "type": "boolean" },
          "commit": { "type": "string" },
          "checksum": { "type": "string" },
          "installed_at": { "type": "string" },
          "updated_at": { "type": "string" },
          "license": { "type": ["string", "null"] },
          "license_file": { "type": ["string", "null"] }
        }
      }
    }
  }
}`
