// Package services contains the application services that implement the
// driving ports. Services orchestrate domain logic and driven ports
// (index store, raw document store, LLM backends) without knowing about
// transport or persistence details.
package services
