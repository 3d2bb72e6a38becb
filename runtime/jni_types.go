package runtime

// JNI version and result constants used when building JavaVMInitArgs,
// mirrored from jni.h (JNI_VERSION_1_8 / JNI_OK), kept here as plain Go
// constants so embed.go's callers don't need a cgo import to reference them.
const (
	jniVersion18 = 0x00010008
	jniOK        = 0
	jniFalse     = 0
)
