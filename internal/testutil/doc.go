// Package testutil contains helper builders and fixtures used across tests
// to reduce boilerplate when scripting backend turns and constructing
// calculator tools. They are not intended for production usage.
package testutil
