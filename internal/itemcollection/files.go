package itemcollection

import "sort"

// FileData is one entry of the $file sub-model: a named attachment with a
// content type, its bytes, and an arbitrary attribute bag.
type FileData struct {
	Name        string
	ContentType string
	Content     []byte
	Attributes  map[string][]Value
}

// AddFileData stores or replaces f under its name, purging any duplicate
// entry first, then keeps $file.count and $file.names in sync.
func (ic *ItemCollection) AddFileData(f FileData) {
	if f.Name == "" {
		return
	}
	files := ic.filesMap()
	files[f.Name] = f
	ic.setFilesMap(files)
}

// RemoveFileData deletes the named attachment, if present.
func (ic *ItemCollection) RemoveFileData(name string) {
	files := ic.filesMap()
	if _, ok := files[name]; !ok {
		return
	}
	delete(files, name)
	ic.setFilesMap(files)
}

// GetFileData returns the named attachment and whether it was present.
func (ic *ItemCollection) GetFileData(name string) (FileData, bool) {
	files := ic.filesMap()
	f, ok := files[name]
	return f, ok
}

// FileNames returns the attachment names, sorted, with no duplicates.
func (ic *ItemCollection) FileNames() []string {
	files := ic.filesMap()
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// filesMap decodes the $file item into a name -> FileData map, purging any
// entry with a null/empty name.
func (ic *ItemCollection) filesMap() map[string]FileData {
	out := make(map[string]FileData)
	list := ic.data[ItemFile]
	if len(list) == 0 || list[0].Kind != KindMap {
		return out
	}
	for name, entry := range list[0].Map {
		if name == "" || len(entry) == 0 {
			continue
		}
		fd := FileData{Name: name}
		if len(entry) > 0 && entry[0].Kind == KindString {
			fd.ContentType = entry[0].Str
		}
		if len(entry) > 1 && entry[1].Kind == KindBytes {
			fd.Content = entry[1].Bytes
		}
		if len(entry) > 2 && entry[2].Kind == KindMap {
			fd.Attributes = entry[2].Map
		}
		out[name] = fd
	}
	return out
}

// setFilesMap re-encodes files back into $file and recomputes the two
// derived items, $file.count and $file.names.
func (ic *ItemCollection) setFilesMap(files map[string]FileData) {
	m := make(map[string][]Value, len(files))
	for name, fd := range files {
		attrs := fd.Attributes
		if attrs == nil {
			attrs = map[string][]Value{}
		}
		m[name] = []Value{
			VString(fd.ContentType),
			VBytes(fd.Content),
			VMap(attrs),
		}
	}
	if len(m) == 0 {
		delete(ic.data, ItemFile)
	} else {
		ic.data[ItemFile] = []Value{VMap(m)}
	}
	ic.syncFileDerived()
}

// syncFileDerived recomputes $file.count and $file.names from the current
// $file contents.
func (ic *ItemCollection) syncFileDerived() {
	names := ic.FileNames()
	if len(names) == 0 {
		delete(ic.data, ItemFileCount)
		delete(ic.data, ItemFileNames)
		return
	}
	ic.data[ItemFileCount] = []Value{VInt64(int64(len(names)))}
	list := make([]Value, len(names))
	for i, n := range names {
		list[i] = VString(n)
	}
	ic.data[ItemFileNames] = list
}
