// Package server implements the HTTP surface of the LAN file drop. It
// wires the drop registry and storage into the sender/receiver API and
// provides lifecycle helpers used by tests and the production binary.
package server
