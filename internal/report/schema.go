package report

// Schema is the JSON Schema (Draft 2020-12) for the crapreport JSON
// output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/crapreport/report.schema.json",
  "title": "CRAP Report",
  "description": "Output schema for crapreport report --format=json",
  "type": "object",
  "required": ["version", "rankings", "totals", "skipped", "unmatched"],
  "properties": {
    "version": {
      "type": "string",
      "description": "Schema version (semver)"
    },
    "rankings": { "$ref": "#/$defs/Rankings" },
    "totals": { "$ref": "#/$defs/Totals" },
    "skipped": {
      "type": "array",
      "items": { "$ref": "#/$defs/Skipped" }
    },
    "unmatched": {
      "type": "array",
      "items": { "$ref": "#/$defs/Unmatched" }
    }
  },
  "$defs": {
    "Rankings": {
      "type": "object",
      "required": ["functions", "files", "folders", "threshold", "top_n"],
      "properties": {
        "functions": {
          "type": "array",
          "items": { "$ref": "#/$defs/FunctionScore" }
        },
        "files": {
          "type": "array",
          "items": { "$ref": "#/$defs/Summary" }
        },
        "folders": {
          "type": "array",
          "items": { "$ref": "#/$defs/Summary" }
        },
        "threshold": {
          "type": "number",
          "minimum": 0,
          "description": "CRAP value counted as above threshold (inclusive)"
        },
        "top_n": {
          "type": "integer",
          "minimum": 0,
          "description": "Ranking limit, 0 means unlimited"
        }
      }
    },
    "FunctionScore": {
      "type": "object",
      "required": ["name", "file", "start_line", "end_line", "complexity", "coverage", "crap", "matched"],
      "properties": {
        "name": { "type": "string" },
        "file": { "type": "string" },
        "start_line": { "type": "integer", "minimum": 1 },
        "end_line": { "type": "integer", "minimum": 1 },
        "complexity": {
          "type": "integer",
          "minimum": 0,
          "description": "Cyclomatic complexity, 0 when unmatched"
        },
        "coverage": { "type": "number", "minimum": 0, "maximum": 100 },
        "crap": { "type": "number", "minimum": 0 },
        "matched": {
          "type": "boolean",
          "description": "Whether a complexity value was found for start_line"
        }
      }
    },
    "Summary": {
      "type": "object",
      "required": ["scope", "max_crap", "above_threshold", "functions"],
      "properties": {
        "scope": {
          "type": "string",
          "description": "File path or folder path"
        },
        "max_crap": { "type": "number", "minimum": 0 },
        "above_threshold": { "type": "integer", "minimum": 0 },
        "functions": { "type": "integer", "minimum": 0 }
      }
    },
    "Totals": {
      "type": "object",
      "required": ["functions", "files", "skipped", "unmatched", "avg_complexity", "avg_coverage", "avg_crap", "crapload"],
      "properties": {
        "functions": { "type": "integer", "minimum": 0 },
        "files": { "type": "integer", "minimum": 0 },
        "skipped": { "type": "integer", "minimum": 0 },
        "unmatched": { "type": "integer", "minimum": 0 },
        "avg_complexity": { "type": "number", "minimum": 0 },
        "avg_coverage": { "type": "number", "minimum": 0, "maximum": 100 },
        "avg_crap": { "type": "number", "minimum": 0 },
        "crapload": { "type": "integer", "minimum": 0 }
      }
    },
    "Skipped": {
      "type": "object",
      "required": ["file", "reason", "message"],
      "properties": {
        "file": { "type": "string" },
        "reason": {
          "type": "string",
          "enum": ["parse_error", "not_found", "unsupported", "generated", "error"]
        },
        "message": { "type": "string" }
      }
    },
    "Unmatched": {
      "type": "object",
      "required": ["file", "name", "start_line"],
      "properties": {
        "file": { "type": "string" },
        "name": { "type": "string" },
        "start_line": { "type": "integer", "minimum": 1 }
      }
    }
  }
}`
