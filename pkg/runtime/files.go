package runtime

import "fmt"

// fileState resolves the file addressed by an operation: the entry with
// the explicit identifier if one is given, otherwise the top of the
// context's stack.
func (c *Cookie) fileState(fid string) (*FileState, error) {
	stack, err := c.fileStack()
	if err != nil {
		return nil, err
	}

	if fid != "" {
		if fs := stack.Find(fid); fs != nil {
			return fs, nil
		}
		return nil, unavailable(fmt.Sprintf("no file analysis currently in flight for file ID %s", fid), "")
	}

	if fs := stack.Current(); fs != nil {
		return fs, nil
	}
	return nil, unavailable("no file analysis currently in flight", "")
}

// dataIn feeds file data into the host, tagged with the protocol
// analyzer's identity when running under a connection. offset < 0 means
// sequential delivery.
func (b *Bridge) dataIn(c *Cookie, data []byte, offset int64, fid string) error {
	fs, err := c.fileState(fid)
	if err != nil {
		return err
	}

	files := b.host.Files()
	if p := c.Protocol(); p != nil {
		if offset >= 0 {
			files.DataInAtOffset(data, uint64(offset), p.Analyzer.Name(), p.Analyzer.Conn(), p.IsOrig, fs.FID, fs.MimeType)
		} else {
			files.DataIn(data, p.Analyzer.Name(), p.Analyzer.Conn(), p.IsOrig, fs.FID, fs.MimeType)
		}
		return nil
	}

	if offset >= 0 {
		files.DataInAtOffset(data, uint64(offset), "", nil, false, fs.FID, fs.MimeType)
	} else {
		files.DataIn(data, "", nil, false, fs.FID, fs.MimeType)
	}
	return nil
}

// FileBegin starts analysis of a new file nested inside the current
// context and returns its freshly minted identifier. mimeType may be
// empty. Inside a file context, connection and direction metadata is
// copied from the enclosing file so that files-within-files report their
// provenance correctly.
func (b *Bridge) FileBegin(c *Cookie, mimeType string) (string, error) {
	stack, err := c.fileStack()
	if err != nil {
		return "", err
	}

	fs := stack.Push()
	fs.MimeType = mimeType

	// Feed an empty chunk so the host creates its file state now.
	if err := b.dataIn(c, nil, -1, fs.FID); err != nil {
		return "", err
	}

	file := b.host.Files().Lookup(fs.FID)
	if file == nil {
		return "", &HostError{Message: fmt.Sprintf("host did not create file state for %s", fs.FID)}
	}

	if f := c.File(); f != nil {
		// The host infers source and parentage from the connection; for a
		// nested file there is none, so fill them in from the enclosing
		// file.
		file.SetSource(f.Analyzer.Name())
		file.AdoptParent(f.Analyzer.File())
	}

	return fs.FID, nil
}

// FUID returns the identifier of the file the current callback runs on.
func (b *Bridge) FUID(c *Cookie) (string, error) {
	if f := c.File(); f != nil {
		if file := f.Analyzer.File(); file != nil {
			return file.ID(), nil
		}
	}
	return "", unavailable("fuid() not available in current context", "")
}

// FileSetSize announces the total size of a file. An empty fid addresses
// the current file.
func (b *Bridge) FileSetSize(c *Cookie, size uint64, fid string) error {
	fs, err := c.fileState(fid)
	if err != nil {
		return err
	}

	if p := c.Protocol(); p != nil {
		b.host.Files().SetSize(size, p.Analyzer.Name(), p.Analyzer.Conn(), p.IsOrig, fs.FID)
		return nil
	}
	b.host.Files().SetSize(size, "", nil, false, fs.FID)
	return nil
}

// FileDataIn feeds sequential data into a file. An empty fid addresses
// the current file.
func (b *Bridge) FileDataIn(c *Cookie, data []byte, fid string) error {
	return b.dataIn(c, data, -1, fid)
}

// FileDataInAtOffset feeds data at an explicit offset into a file.
func (b *Bridge) FileDataInAtOffset(c *Cookie, data []byte, offset uint64, fid string) error {
	return b.dataIn(c, data, int64(offset), fid)
}

// FileGap reports a gap in a file's data.
func (b *Bridge) FileGap(c *Cookie, offset, length uint64, fid string) error {
	fs, err := c.fileState(fid)
	if err != nil {
		return err
	}

	if p := c.Protocol(); p != nil {
		b.host.Files().Gap(offset, length, p.Analyzer.Name(), p.Analyzer.Conn(), p.IsOrig, fs.FID)
		return nil
	}
	b.host.Files().Gap(offset, length, "", nil, false, fs.FID)
	return nil
}

// FileEnd finishes analysis of a file and removes its entry from the
// stack, wherever the entry sits. The identifier is never reused.
func (b *Bridge) FileEnd(c *Cookie, fid string) error {
	fs, err := c.fileState(fid)
	if err != nil {
		return err
	}

	b.host.Files().EndOfFile(fs.FID)

	stack, err := c.fileStack()
	if err != nil {
		return err
	}
	stack.Remove(fs.FID)
	return nil
}
