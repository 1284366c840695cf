// Package updater implements the gRPC transport for the update commands.
//
// The service is declared by hand with protobuf well-known types (Empty,
// StringValue, Struct, ListValue) so no generated code is needed. Errors are
// returned as status errors whose message is the human-readable cause.
package updater
