/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chris-ha458/elara/internal/storage"
)

func TestRecoverWritesReportAndSnapshot(t *testing.T) {
	root := t.TempDir()
	ph, err := storage.InitProfile(root, storage.NewProfile("ada"))
	if err != nil {
		t.Fatalf("InitProfile: %v", err)
	}

	exitCode := -1
	oldExit := exitFn
	exitFn = func(code int) { exitCode = code }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(ph)
		panic("boom in test")
	}()

	if exitCode != 2 {
		t.Fatalf("exit code: %d", exitCode)
	}

	bdir := filepath.Join(root, storage.BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	var haveReport, haveSnapshot bool
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".log") {
			haveReport = true
			b, _ := os.ReadFile(filepath.Join(bdir, e.Name()))
			if !strings.Contains(string(b), "boom in test") {
				t.Fatalf("report missing panic value")
			}
		}
		if strings.Contains(e.Name(), ".crash-") && strings.HasSuffix(e.Name(), ".bak") {
			haveSnapshot = true
		}
	}
	if !haveReport || !haveSnapshot {
		t.Fatalf("report=%v snapshot=%v", haveReport, haveSnapshot)
	}
}

func TestRecoverNoPanicIsNoOp(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("Recover exited without a panic")
	}
}
