//go:build !windows

package runtime

/*
#include <dlfcn.h>
#include <jni.h>
#include <stdlib.h>

// Building this package requires a JDK on the host: point CGO_CFLAGS at
// $JAVA_HOME/include (and its platform subdirectory, e.g.
// $JAVA_HOME/include/linux) and CGO_LDFLAGS at -ldl before invoking `go
// build`. jni.h's struct layout is fixed by the JNI specification, so any
// conforming JDK's header works.

typedef jint (JNICALL *create_vm_fn)(JavaVM **, void **, void *);

static jint invoke_create_vm(void *fn, JavaVM **pvm, JNIEnv **penv, JavaVMInitArgs *args) {
	create_vm_fn f = (create_vm_fn)fn;
	return f(pvm, (void **)penv, (void *)args);
}

static jclass shim_find_class(JNIEnv *env, const char *name) {
	return (*env)->FindClass(env, name);
}

static jmethodID shim_get_static_method_id(JNIEnv *env, jclass cls, const char *name, const char *sig) {
	return (*env)->GetStaticMethodID(env, cls, name, sig);
}

static void shim_call_static_void_method_a(JNIEnv *env, jclass cls, jmethodID m, jvalue *args) {
	(*env)->CallStaticVoidMethodA(env, cls, m, args);
}

static jobjectArray shim_new_object_array(JNIEnv *env, jsize length, jclass elementClass, jobject initial) {
	return (*env)->NewObjectArray(env, length, elementClass, initial);
}

static jstring shim_new_string_utf(JNIEnv *env, const char *s) {
	return (*env)->NewStringUTF(env, s);
}

static void shim_set_object_array_element(JNIEnv *env, jobjectArray arr, jsize index, jobject val) {
	(*env)->SetObjectArrayElement(env, arr, index, val);
}

static jint shim_attach_current_thread(JavaVM *vm, JNIEnv **penv, JavaVMAttachArgs *args) {
	return (*vm)->AttachCurrentThread(vm, (void **)penv, args);
}

static jint shim_detach_current_thread(JavaVM *vm) {
	return (*vm)->DetachCurrentThread(vm);
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/nativestart-go/launcher/descriptor"
)

// embedImpl is the sole pointer-unsafe entry point in this module. It
// dlopens libPath, resolves JNI_CreateJavaVM, constructs the JVM with
// params.Options, locates params.MainClass's static main([Ljava/lang/
// String;)V, builds argv from args, spawns the await-UI probe thread, and
// invokes main synchronously — mirroring the reference implementation's
// jvm_starter.rs line for line.
func embedImpl(libPath string, params descriptor.JvmParameters, args []string, signals chan<- Signal) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cLibPath := C.CString(libPath)
	defer C.free(unsafe.Pointer(cLibPath))

	handle := C.dlopen(cLibPath, C.RTLD_NOW)
	if handle == nil {
		return fmt.Errorf("dlopen %s: %s", libPath, C.GoString(C.dlerror()))
	}

	cSym := C.CString("JNI_CreateJavaVM")
	defer C.free(unsafe.Pointer(cSym))
	createVM := C.dlsym(handle, cSym)
	if createVM == nil {
		return fmt.Errorf("resolving JNI_CreateJavaVM in %s: %s", libPath, C.GoString(C.dlerror()))
	}

	cOptions := make([]C.JavaVMOption, len(params.Options))
	var cStrs []*C.char
	for i, opt := range params.Options {
		cs := C.CString(opt)
		cStrs = append(cStrs, cs)
		cOptions[i] = C.JavaVMOption{optionString: cs, extraInfo: nil}
	}
	defer func() {
		for _, cs := range cStrs {
			C.free(unsafe.Pointer(cs))
		}
	}()

	var optsPtr *C.JavaVMOption
	if len(cOptions) > 0 {
		optsPtr = &cOptions[0]
	}
	vmArgs := C.JavaVMInitArgs{
		version:            C.jint(jniVersion18),
		nOptions:           C.jint(len(cOptions)),
		options:            optsPtr,
		ignoreUnrecognized: C.jboolean(jniFalse),
	}

	var jvm *C.JavaVM
	var env *C.JNIEnv
	rc := C.invoke_create_vm(createVM, &jvm, (*unsafe.Pointer)(unsafe.Pointer(&env)), &vmArgs)
	if rc != C.jint(jniOK) {
		return fmt.Errorf("JNI_CreateJavaVM returned %d", int(rc))
	}

	cMainClass := C.CString(params.MainClass)
	defer C.free(unsafe.Pointer(cMainClass))
	class := C.shim_find_class(env, cMainClass)
	if class == nil {
		return fmt.Errorf("main class %s not found", params.MainClass)
	}

	cMainName := C.CString("main")
	defer C.free(unsafe.Pointer(cMainName))
	cMainSig := C.CString("([Ljava/lang/String;)V")
	defer C.free(unsafe.Pointer(cMainSig))
	mainMethod := C.shim_get_static_method_id(env, class, cMainName, cMainSig)
	if mainMethod == nil {
		return fmt.Errorf("%s.main([Ljava/lang/String;)V not found", params.MainClass)
	}

	argv, err := buildArgv(env, args)
	if err != nil {
		return err
	}

	go awaitUIProbe(jvm, params.MainClass, signals)

	var mainArgs [1]C.jvalue
	*(*C.jobjectArray)(unsafe.Pointer(&mainArgs[0])) = argv
	C.shim_call_static_void_method_a(env, class, mainMethod, &mainArgs[0])

	if signals != nil {
		signals <- SignalTerminated
	}
	return nil
}

// buildArgv mirrors jvm_starter.rs's build_arguments: allocate a
// java.lang.String[] sized to len(args) and populate it element by element.
func buildArgv(env *C.JNIEnv, args []string) (C.jobjectArray, error) {
	cStringClassName := C.CString("java/lang/String")
	defer C.free(unsafe.Pointer(cStringClassName))
	stringClass := C.shim_find_class(env, cStringClassName)
	if stringClass == nil {
		return nil, fmt.Errorf("java.lang.String class not found")
	}

	arr := C.shim_new_object_array(env, C.jsize(len(args)), stringClass, nil)
	if arr == nil {
		return nil, fmt.Errorf("failed to allocate argument array")
	}

	for i, arg := range args {
		cArg := C.CString(arg)
		jstr := C.shim_new_string_utf(env, cArg)
		C.free(unsafe.Pointer(cArg))
		C.shim_set_object_array_element(env, arr, C.jsize(i), C.jobject(jstr))
	}
	return arr, nil
}

// awaitUIProbe attaches to the JVM on its own OS thread and looks up an
// optional static awaitUI()V hook on mainClass, invoking it if present and
// signaling SignalVisible when it returns (or immediately if absent).
func awaitUIProbe(jvm *C.JavaVM, mainClass string, signals chan<- Signal) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var env *C.JNIEnv
	cName := C.CString("await UI")
	defer C.free(unsafe.Pointer(cName))
	attachArgs := C.JavaVMAttachArgs{
		version: C.jint(jniVersion18),
		name:    cName,
		group:   nil,
	}
	if rc := C.shim_attach_current_thread(jvm, &env, &attachArgs); rc != C.jint(jniOK) {
		if signals != nil {
			signals <- SignalVisible
		}
		return
	}
	defer C.shim_detach_current_thread(jvm)

	cMainClass := C.CString(mainClass)
	defer C.free(unsafe.Pointer(cMainClass))
	class := C.shim_find_class(env, cMainClass)
	if class != nil {
		cName := C.CString("awaitUI")
		defer C.free(unsafe.Pointer(cName))
		cSig := C.CString("()V")
		defer C.free(unsafe.Pointer(cSig))
		method := C.shim_get_static_method_id(env, class, cName, cSig)
		if method != nil {
			C.shim_call_static_void_method_a(env, class, method, nil)
		}
	}

	if signals != nil {
		signals <- SignalVisible
	}
}
