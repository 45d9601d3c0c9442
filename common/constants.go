package common

const (
	DefaultBIP39Passphrase = ""
	DefaultSolanaHDPath    = "m/44'/501'/0'/0'"
	SolanaSignatureLength  = 64
	SolanaPublicKeyLength  = 32
)
