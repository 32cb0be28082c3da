package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// JSON schemas for the tool payloads that arrive as serialized strings.
// Validation happens before decoding so a malformed payload is rejected
// with a schema error instead of a partial zero-valued struct.

const editSetSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "wifi_edits": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["ssid"],
        "properties": {
          "ssid": {"type": "string", "minLength": 1},
          "_id": {"type": "string"},
          "enabled": {"type": "boolean"},
          "security": {"type": "string"},
          "wpa_mode": {"type": "string"},
          "wpa3_support": {"type": "boolean"},
          "wpa3_transition": {"type": "boolean"},
          "hide_ssid": {"type": "boolean"},
          "l2_isolation": {"type": "boolean"},
          "vlan_enabled": {"type": "boolean"},
          "vlan": {"type": "integer"}
        },
        "additionalProperties": false
      }
    },
    "firewall_edits": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["action"],
        "properties": {
          "action": {"enum": ["create", "update", "delete"]},
          "ruleset": {"type": "string"},
          "rule_id": {"type": "string"},
          "rule_name": {"type": "string"},
          "rule_action": {"enum": ["accept", "drop", "reject"]},
          "protocol": {"type": "string"},
          "src_address": {"type": "string"},
          "dst_address": {"type": "string"},
          "dst_port": {"type": "string"},
          "enabled": {"type": "boolean"}
        },
        "additionalProperties": false
      }
    },
    "vlan_edits": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "action": {"enum": ["create", "update", "delete"]},
          "network_name": {"type": "string"},
          "network_id": {"type": "string"},
          "vlan_enabled": {"type": "boolean"},
          "vlan": {"type": "integer"},
          "subnet": {"type": "string"},
          "dhcp_enabled": {"type": "boolean"},
          "purpose": {"type": "string"},
          "igmp_snooping": {"type": "boolean"}
        },
        "additionalProperties": false
      }
    },
    "upnp_edits": {
      "type": "object",
      "properties": {
        "upnp_enabled": {"type": "boolean"},
        "upnp_nat_pmp_enabled": {"type": "boolean"},
        "upnp_secure_mode": {"type": "boolean"}
      },
      "additionalProperties": false
    }
  }
}`

const planSchema = `{
  "type": "object",
  "required": ["changes"],
  "properties": {
    "changes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["category", "change_type", "target"],
        "properties": {
          "category": {"enum": ["wifi", "firewall", "vlan", "upnp"]},
          "change_type": {"enum": ["create", "update", "delete"]},
          "target": {"type": "string", "minLength": 1},
          "changes": {"type": "object"},
          "finding_ids": {"type": "array", "items": {"type": "string"}},
          "phase": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

var (
	compiledEditSetSchema = mustCompile("edit_set", editSetSchema)
	compiledPlanSchema    = mustCompile("hardening_plan", planSchema)
)

func mustCompile(id, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	resourceID := "inmemory://" + id
	if err := compiler.AddResource(resourceID, strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(resourceID)
}

// validateAndDecode checks raw against the schema and then unmarshals it
// into out.
func validateAndDecode(schema *jsonschema.Schema, raw string, out any) error {
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return json.Unmarshal([]byte(raw), out)
}
