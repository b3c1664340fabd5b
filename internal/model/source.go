// Package model defines the data structures shared by the unpin packages.
package model

// Path represents a file system path.
type Path string

// File represents a disassembled class file on disk.
type File struct {
	FullPath  Path
	ShortPath Path // relative to the decompiled root
}

// Source is one unit of work for the patch pipeline.
type Source struct {
	Origin *File
}
