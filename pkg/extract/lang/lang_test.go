package lang

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/extract"
	"github.com/matzehuels/stackscan/pkg/httputil"
)

// stdlibServer answers 200 for the given paths and 404 otherwise.
func stdlibServer(t *testing.T, paths ...string) *httptest.Server {
	t.Helper()
	ok := make(map[string]bool, len(paths))
	for _, p := range paths {
		ok[p] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ok[r.URL.Path] {
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExtractor(t *testing.T, g *Grammar, base string, known ...string) *Extractor {
	t.Helper()
	env := extract.Env{
		Logger: log.New(io.Discard),
		Prober: httputil.NewProber(httputil.ProberOptions{}),
	}
	e := New(g, env, base)
	e.SetKnownFiles(extract.NewKnownFiles(known))
	return e
}

type got struct {
	Name, Group, Binding string
	Type                 component.Type
}

func run(t *testing.T, e *Extractor, path, content string) []got {
	t.Helper()
	e.SetDir(extract.Dir(path))
	cands, err := e.Extract(context.Background(), path, content)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	out := make([]got, len(cands))
	for i, c := range cands {
		if c.File != path {
			t.Errorf("File = %q, want %q", c.File, path)
		}
		out[i] = got{Name: c.Name, Group: c.Group, Binding: c.Binding, Type: c.Type}
	}
	return out
}

func check(t *testing.T, want, have []got) {
	t.Helper()
	if diff := cmp.Diff(want, have); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestPythonImportForms(t *testing.T) {
	srv := stdlibServer(t, "/os.html", "/collections.html")
	e := newTestExtractor(t, Python, srv.URL)

	content := "import os\nimport foo.bar as fb\n"
	check(t, []got{
		{Name: "os", Type: component.Language},
		{Name: "bar", Group: "foo", Binding: "fb", Type: component.External},
	}, run(t, e, "app.py", content))

	content = "from collections import (OrderedDict,\n    defaultdict as dd)\n# import ignored\n"
	check(t, []got{
		{Name: "OrderedDict", Group: "collections", Type: component.Language},
		{Name: "defaultdict", Group: "collections", Binding: "dd", Type: component.Language},
	}, run(t, e, "app.py", content))
}

func TestPythonRelativeImports(t *testing.T) {
	srv := stdlibServer(t)
	e := newTestExtractor(t, Python, srv.URL, "pkg/util.py", "pkg/sub/mod.py", "shared.py")

	content := "from . import util\nfrom .util import helper\nfrom .. import shared\nfrom .sub.mod import *\n"
	check(t, []got{
		{Name: "util", Group: "pkg", Type: component.Internal},
		{Name: "helper", Group: "pkg.util", Type: component.Internal},
		{Name: "shared", Type: component.Internal},
		{Name: "mod", Group: "pkg.sub", Binding: "*", Type: component.Internal},
	}, run(t, e, "pkg/main.py", content))
}

func TestInternalTakesPriorityOverLanguage(t *testing.T) {
	srv := stdlibServer(t, "/os.html")
	e := newTestExtractor(t, Python, srv.URL, "os.py")

	for range 2 {
		check(t, []got{{Name: "os", Type: component.Internal}}, run(t, e, "app.py", "import os\nos.getcwd()\n"))
	}
}

func TestProbeFailureIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	e := newTestExtractor(t, Python, base)
	check(t, []got{{Name: "os", Type: component.External}}, run(t, e, "app.py", "import os\n"))
}

func TestNoProberMeansNoLanguage(t *testing.T) {
	e := New(Python, extract.Env{Logger: log.New(io.Discard)}, "http://127.0.0.1:1")
	e.SetKnownFiles(nil)
	check(t, []got{{Name: "os", Type: component.External}}, run(t, e, "app.py", "import os\n"))
}

func TestJava(t *testing.T) {
	srv := stdlibServer(t, "/java/util/List.html", "/java/io/package-summary.html")
	e := newTestExtractor(t, Java, srv.URL, "src/main/java/com/acme/Service.java")

	content := `package com.acme.app;

import java.util.List;
import java.io.*;
import static org.junit.Assert.assertEquals;
import com.acme.Service;
// import com.hidden.Thing;
`
	check(t, []got{
		{Name: "List", Group: "java.util", Type: component.Language},
		{Name: "io", Group: "java", Binding: "*", Type: component.Language},
		{Name: "assertEquals", Group: "org.junit.Assert", Type: component.External},
		{Name: "Service", Group: "com.acme", Type: component.Internal},
	}, run(t, e, "src/main/java/com/acme/app/App.java", content))
}

func TestScala(t *testing.T) {
	srv := stdlibServer(t, "/scala/collection/mutable/Map.html")
	e := newTestExtractor(t, Scala, srv.URL)

	content := "import scala.collection.mutable.{Map, Set => MSet, Seq => _}\nimport akka.actor._\n"
	check(t, []got{
		{Name: "Map", Group: "scala.collection.mutable", Type: component.Language},
		{Name: "Set", Group: "scala.collection.mutable", Binding: "MSet", Type: component.External},
		{Name: "actor", Group: "akka", Binding: "*", Type: component.External},
	}, run(t, e, "Main.scala", content))
}

func TestCSharp(t *testing.T) {
	srv := stdlibServer(t, "/system", "/system.collections.generic")
	e := newTestExtractor(t, CSharp, srv.URL, "Acme/Utils/Helper.cs")

	content := "using System;\nusing System.Collections.Generic;\nusing Acme.Utils;\nusing Json = Newtonsoft.Json;\nusing (var s = Open()) {}\n"
	check(t, []got{
		{Name: "System", Type: component.Language},
		{Name: "Generic", Group: "System.Collections", Type: component.Language},
		{Name: "Utils", Group: "Acme", Type: component.Internal},
		{Name: "Json", Group: "Newtonsoft", Binding: "Json", Type: component.External},
	}, run(t, e, "Program.cs", content))
	if CSharp.BindsNames {
		t.Error("C# usings do not bind names")
	}
}

func TestCpp(t *testing.T) {
	srv := stdlibServer(t, "/cpp/header/vector", "/c/header/stdio")
	e := newTestExtractor(t, Cpp, srv.URL, "src/util/log.h", "src/local.h")

	content := "#include <vector>\n#include <stdio.h>\n#include \"util/log.h\"\n#include \"local.h\"\n#  include <boost/asio.hpp>\n"
	check(t, []got{
		{Name: "vector", Type: component.Language},
		{Name: "stdio.h", Type: component.Language},
		{Name: "log.h", Group: "util", Type: component.Internal},
		{Name: "local.h", Type: component.Internal},
		{Name: "asio.hpp", Group: "boost", Type: component.External},
	}, run(t, e, "src/main.cpp", content))
}

func TestGo(t *testing.T) {
	srv := stdlibServer(t, "/fmt", "/net/http")
	e := newTestExtractor(t, Golang, srv.URL, "go.mod", "internal/x/x.go")
	e.Known().AddModule("", "github.com/acme/proj")

	content := `package main

import "fmt"

import (
	"net/http"
	// "os"
	errs "github.com/pkg/errors"
	_ "github.com/acme/proj/internal/x"
)
`
	check(t, []got{
		{Name: "fmt", Type: component.Language},
		{Name: "http", Group: "net", Type: component.Language},
		{Name: "errors", Group: "github.com/pkg", Binding: "errs", Type: component.External},
		{Name: "x", Group: "github.com/acme/proj/internal", Binding: "_", Type: component.Internal},
	}, run(t, e, "main.go", content))
}

func TestRust(t *testing.T) {
	srv := stdlibServer(t, "/std/collections/index.html", "/std/io/index.html")
	e := newTestExtractor(t, Rust, srv.URL, "src/util.rs")

	content := `use std::collections::HashMap;
use std::io::{self, Read};
use serde::{Serialize, Deserialize as De};
use crate::util::parse;
extern crate libc;
use super::*;
`
	check(t, []got{
		{Name: "HashMap", Group: "std::collections", Type: component.Language},
		{Name: "io", Group: "std", Type: component.Language},
		{Name: "Read", Group: "std::io", Type: component.Language},
		{Name: "Serialize", Group: "serde", Type: component.External},
		{Name: "Deserialize", Group: "serde", Binding: "De", Type: component.External},
		{Name: "parse", Group: "crate::util", Type: component.Internal},
		{Name: "libc", Type: component.External},
	}, run(t, e, "src/main.rs", content))
}

func TestJavaScript(t *testing.T) {
	srv := stdlibServer(t, "/fs.html")
	e := newTestExtractor(t, JavaScript, srv.URL, "src/lib/util.ts", "src/components/index.js")

	content := `import React, { useState } from 'react';
import { a } from './lib/util';
import Button from "./components";
const fs = require('node:fs');
export * from '@scope/pkg/deep';
const lazy = import('lodash/fp');
`
	check(t, []got{
		{Name: "react", Type: component.External},
		{Name: "util", Group: "src/lib", Type: component.Internal},
		{Name: "components", Group: "src", Type: component.Internal},
		{Name: "fs", Type: component.Language},
		{Name: "pkg", Group: "@scope", Type: component.External},
		{Name: "lodash", Type: component.External},
	}, run(t, e, "src/app.tsx", content))
}

func TestRuby(t *testing.T) {
	srv := stdlibServer(t, "/json/rdoc/index.html")
	e := newTestExtractor(t, Ruby, srv.URL, "lib/helpers.rb")

	content := "require 'json'\nrequire_relative 'helpers'\nrequire \"rails/all\"\n"
	check(t, []got{
		{Name: "json", Type: component.Language},
		{Name: "helpers", Group: "lib", Type: component.Internal},
		{Name: "all", Group: "rails", Type: component.External},
	}, run(t, e, "lib/app.rb", content))
}

func TestPerl(t *testing.T) {
	srv := stdlibServer(t, "/strict", "/File::Spec::Functions")
	e := newTestExtractor(t, Perl, srv.URL, "lib/Acme/Thing.pm")

	content := "use strict;\nuse v5.10;\nuse File::Spec::Functions qw(catfile);\nuse Acme::Thing;\nrequire LWP::UserAgent;\n"
	check(t, []got{
		{Name: "strict", Type: component.Language},
		{Name: "Functions", Group: "File::Spec", Type: component.Language},
		{Name: "Thing", Group: "Acme", Type: component.Internal},
		{Name: "UserAgent", Group: "LWP", Type: component.External},
	}, run(t, e, "script.pl", content))
}

func TestSyntax(t *testing.T) {
	e := New(Python, extract.Env{}, "")
	s := e.Syntax()
	if !s.BindsNames {
		t.Error("python binds names")
	}
	if !s.IsImport("from a import b") || !s.IsImport("  import os") || s.IsImport("x = 1") {
		t.Error("IsImport mismatch")
	}
	if len(s.CommentPrefixes) != 1 || s.CommentPrefixes[0] != "#" {
		t.Errorf("CommentPrefixes = %v", s.CommentPrefixes)
	}
}

func TestAllGrammarsCompile(t *testing.T) {
	seen := make(map[string]string)
	for _, g := range All {
		if g.Pattern.SubexpIndex("imports") < 0 {
			t.Errorf("%s: pattern has no imports group", g.Name)
		}
		if g.DefaultStdlibBase == "" || g.Refs == nil {
			t.Errorf("%s: incomplete grammar", g.Name)
		}
		for _, ext := range g.Extensions {
			if other, dup := seen[ext]; dup {
				t.Errorf("extension %q claimed by %s and %s", ext, other, g.Name)
			}
			seen[ext] = g.Name
		}
	}
}
