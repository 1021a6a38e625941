// Command signset records labeled landmark sequences from a camera into a
// NumPy dataset laid out as root/label/sequence/frame.npy.
//
// Usage:
//
//	signset record [--label L ...] [--sequences N] [--length N] [--root DIR] [--mode overwrite|append]
//	signset provision
//	signset inspect [--label L]
//	signset runs [--limit N]
//	signset runs show ID
//	signset serve [--listen ADDR]
//	signset config init [--path P]
package main
