package astcache

import "github.com/l3aro/tldrs/pkg/types"

// ImportRecord is one raw import statement plus the module string it names.
type ImportRecord struct {
	Raw    string `msgpack:"raw"`
	Module string `msgpack:"module"`
}

// FunctionRecord is the cached shape of one function or method signature.
// Params is kept as the adapter's raw parenthesized string; pkg/project
// re-parses it into (name, type) pairs on load, same as on a cold extract.
type FunctionRecord struct {
	Name       string `msgpack:"name"`
	Params     string `msgpack:"params"`
	ReturnType string `msgpack:"return_type"`
	Doc        string `msgpack:"doc"`
	Line       int    `msgpack:"line"`
}

// ClassRecord is one class/struct/interface definition and its methods.
type ClassRecord struct {
	Name    string           `msgpack:"name"`
	Line    int              `msgpack:"line"`
	Doc     string           `msgpack:"doc"`
	Methods []FunctionRecord `msgpack:"methods"`
}

// ModuleSummary is the per-file extraction result the AST cache persists:
// language tag, content hash, and the ordered imports/classes/functions a
// language adapter produced for one file.
type ModuleSummary struct {
	Language  string         `msgpack:"language"`
	FileHash  string         `msgpack:"file_hash"`
	Imports   []ImportRecord `msgpack:"imports"`
	Classes   []ClassRecord  `msgpack:"classes"`
	Functions []FunctionRecord `msgpack:"functions"`
}

// FromModuleInfo converts a language adapter's raw extraction result into
// the cached summary shape, stamping it with the caller-supplied content
// hash (the cache key's staleness check uses mtime+size, not this hash;
// FileHash is carried for downstream consumers per the data contract).
func FromModuleInfo(info types.ModuleInfo, fileHash string) ModuleSummary {
	s := ModuleSummary{
		Language: info.Language,
		FileHash: fileHash,
	}
	for _, imp := range info.Imports {
		s.Imports = append(s.Imports, ImportRecord{Raw: imp.Module, Module: imp.Module})
	}
	for _, fn := range info.Functions {
		s.Functions = append(s.Functions, functionRecordOf(fn))
	}
	for _, cls := range info.Classes {
		cr := ClassRecord{Name: cls.Name, Line: cls.LineNumber, Doc: cls.Docstring}
		for _, m := range cls.Methods {
			cr.Methods = append(cr.Methods, functionRecordOf(m))
		}
		s.Classes = append(s.Classes, cr)
	}
	return s
}

func functionRecordOf(fn types.Function) FunctionRecord {
	return FunctionRecord{
		Name:       fn.Name,
		Params:     fn.Params,
		ReturnType: fn.ReturnType,
		Doc:        fn.Docstring,
		Line:       fn.LineNumber,
	}
}

// ToModuleInfo reconstructs the types.ModuleInfo shape a language adapter
// would have returned, for callers that want to re-run registration logic
// against a warm cache entry without re-parsing the source file.
func (s ModuleSummary) ToModuleInfo(path string) types.ModuleInfo {
	info := types.ModuleInfo{Path: path, Language: s.Language}
	for _, fn := range s.Functions {
		info.Functions = append(info.Functions, fn.toFunction())
	}
	for _, cls := range s.Classes {
		c := types.Class{Name: cls.Name, Docstring: cls.Doc, LineNumber: cls.Line}
		for _, m := range cls.Methods {
			c.Methods = append(c.Methods, m.toFunction())
		}
		info.Classes = append(info.Classes, c)
	}
	for _, imp := range s.Imports {
		info.Imports = append(info.Imports, types.Import{Module: imp.Module})
	}
	return info
}

func (fn FunctionRecord) toFunction() types.Function {
	return types.Function{
		Name:       fn.Name,
		Params:     fn.Params,
		ReturnType: fn.ReturnType,
		Docstring:  fn.Doc,
		LineNumber: fn.Line,
	}
}
