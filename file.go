// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package yaradec

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/saferwall/yaradec/log"
)

// A File represents an open compiled rules file.
type File struct {
	FileHeader FileHeader   `json:"file_header"`
	Header     ImageHeader  `json:"header"`
	Code       *CodeMap     `json:"-"`
	Rules      []*Rule      `json:"rules,omitempty"`

	data   mmap.MMap
	img    []byte
	size   uint32
	f      *os.File
	opts   *Options
	logger *log.Helper
}

// Options for decoding.
type Options struct {
	// A custom logger.
	Logger log.Logger
}

// versionParsers maps supported format versions to their image decoder.
// Version 12 carries no observable layout change and decodes as version 11.
var versionParsers = map[uint8]func(*File) error{
	11: (*File).parseImage,
	12: (*File).parseImage,
}

// New instantiates a file instance with options given a file name. The
// mapping is copy-on-write since relocation patches the buffer.
func New(name string, opts *Options) (*File, error) {

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.COPY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	file := newFile(opts)
	file.data = data
	file.f = f
	return file, nil
}

// NewBytes instantiates a file instance with options given a memory buffer
// holding the whole file. The buffer is patched in place by the relocation
// pass.
func NewBytes(data []byte, opts *Options) (*File, error) {
	file := newFile(opts)
	file.data = data
	return file, nil
}

func newFile(opts *Options) *File {
	file := File{Code: newCodeMap()}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}

	if file.opts.Logger == nil {
		logger := log.NewStdLogger(os.Stdout)
		file.logger = log.NewHelper(log.NewFilter(logger,
			log.FilterLevel(log.LevelError)))
	} else {
		file.logger = log.NewHelper(file.opts.Logger)
	}

	return &file
}

// Close closes the File.
func (yr *File) Close() error {
	if yr.f != nil {
		if err := yr.data.Unmap(); err != nil {
			yr.logger.Errorf("unmapping failed: %v", err)
		}
		return yr.f.Close()
	}
	return nil
}

// Parse decodes the compiled rules file: header validation, relocation,
// bytecode traversal and rule assembly. Decoding is fail-fast; on error the
// partially decoded state is not usable.
func (yr *File) Parse() error {
	if err := yr.ParseFileHeader(); err != nil {
		return err
	}

	return versionParsers[yr.FileHeader.Version](yr)
}

func (yr *File) parseImage() error {
	if err := yr.ApplyRelocations(); err != nil {
		return err
	}

	if err := yr.ParseImageHeader(); err != nil {
		return err
	}

	if err := yr.ParseCode(); err != nil {
		return err
	}

	return yr.AssembleRules()
}
