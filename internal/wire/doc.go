// Package wire owns the Jupyter message wire contract.
//
// Ownership boundary:
// - multipart frame codec (identities, delimiter, JSON parts, buffers)
// - HMAC signing and verification over the four JSON parts
// - message header construction
package wire
