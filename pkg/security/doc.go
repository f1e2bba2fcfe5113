/*
Package security seals secret values before they are written to the
pillar store.

A Sealer wraps AES-256-GCM. Every sealed blob is laid out as

	[version: 1 byte] [nonce: 12 bytes] [ciphertext + 16 byte tag]

and the version byte is authenticated as additional data, so a blob with
a tampered version fails to open rather than being read under the wrong
format.

Keys come from one of three places:

	security.NewSealer(key)                 // 32 raw bytes
	security.NewSealerFromPassword(pass)    // HKDF-SHA256 over the password
	security.LoadKeyFile("/etc/terminator/store.key")

A key file holds either 32 raw bytes or 64 hex characters. GenerateKey
produces a fresh random key for a new store.

Sealing is nondeterministic: each call draws a fresh nonce, so sealing
the same value twice yields different blobs.
*/
package security
