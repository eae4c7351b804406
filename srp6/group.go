package srp6

// rfc2409Oakley2 holds the 1536-bit MODP group prime from RFC 3526
// (group 5), which extends the RFC 2409 Second Oakley Group's leading
// digits; a safe prime widely reused as an SRP group modulus. It is used
// here instead of RFC 5054's 2048-bit group.
const rfc2409Oakley2 = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD" +
	"129024E088A67CC74020BBEA63B139B22514A08798E3404DDEF9519B3CD3A4" +
	"31B302B0A6DF25F14374FE1356D6D51C245E485B576625E7EC6F44C42E9A63" +
	"7ED6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651E" +
	"CE45B3DC2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F83655D2" +
	"3DCA3AD961C62F356208552BB9ED529077096966D670C354E4ABC9804F1746" +
	"C08CA237327FFFFFFFFFFFFFFFF"
