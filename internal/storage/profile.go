/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage persists the learner's profile and script history. The
// profile manifest is human-readable JSON written transactionally with
// timestamped backups; the attempt log lives in an embedded SQLite database
// next to it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	ManifestFileName = "profile.json"
	BackupsDirName   = "backups"
)

var standardSubDirs = []string{
	"scripts",
	"exports",
	BackupsDirName,
}

// LevelProgress is what the profile remembers per level.
type LevelProgress struct {
	LevelID    string    `json:"level_id"`
	Completed  bool      `json:"completed"`
	BestSteps  int       `json:"best_steps,omitempty"` // fewest steps in a winning run
	LastScript string    `json:"last_script,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Profile is the manifest document.
type Profile struct {
	Name      string                    `json:"name"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
	Levels    map[string]*LevelProgress `json:"levels"`
}

// NewProfile returns an empty profile for name.
func NewProfile(name string) Profile {
	now := time.Now().UTC()
	return Profile{Name: name, CreatedAt: now, UpdatedAt: now, Levels: map[string]*LevelProgress{}}
}

// Progress returns the progress record for a level, creating it on demand.
func (p *Profile) Progress(levelID string) *LevelProgress {
	if p.Levels == nil {
		p.Levels = map[string]*LevelProgress{}
	}
	lp, ok := p.Levels[levelID]
	if !ok {
		lp = &LevelProgress{LevelID: levelID}
		p.Levels[levelID] = lp
	}
	return lp
}

// RecordCompletion updates a level's progress after a winning run. A
// non-positive steps count marks completion without competing for the best.
func (p *Profile) RecordCompletion(levelID string, steps int) {
	lp := p.Progress(levelID)
	lp.Completed = true
	if steps > 0 && (lp.BestSteps == 0 || steps < lp.BestSteps) {
		lp.BestSteps = steps
	}
	lp.UpdatedAt = time.Now().UTC()
	p.UpdatedAt = lp.UpdatedAt
}

// ProfileHandle tracks the profile state loaded/saved from disk. Root is the
// data directory containing profile.json and subfolders.
type ProfileHandle struct {
	Root         string
	ManifestPath string
	Profile      Profile
}

// InitProfile creates a profile directory at root (creating it if needed),
// scaffolds the standard subfolders, and writes the manifest transactionally.
func InitProfile(root string, prof Profile) (*ProfileHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create profile root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}

	ph := &ProfileHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Profile:      prof,
	}
	if err := Save(ph); err != nil {
		return nil, err
	}
	return ph, nil
}

// Open loads an existing profile from root. If the current manifest cannot
// be read or parsed, it falls back to the latest backup.
func Open(root string) (*ProfileHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		prof, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &ProfileHandle{Root: root, ManifestPath: mpath, Profile: *prof}, nil
	}
	var p Profile
	if uerr := json.Unmarshal(b, &p); uerr != nil {
		prof, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &ProfileHandle{Root: root, ManifestPath: mpath, Profile: *prof}, nil
	}
	return &ProfileHandle{Root: root, ManifestPath: mpath, Profile: p}, nil
}

// OpenOrInit opens the profile at root, creating a fresh one named name
// when nothing usable is there yet.
func OpenOrInit(root, name string) (*ProfileHandle, error) {
	ph, err := Open(root)
	if err == nil {
		return ph, nil
	}
	return InitProfile(root, NewProfile(name))
}

// Save writes the profile to disk with transactional semantics and a
// timestamped backup of the previous manifest (if present).
func Save(ph *ProfileHandle) error {
	if ph == nil {
		return errors.New("nil ProfileHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid ProfileHandle: missing paths")
	}
	data, err := json.MarshalIndent(ph.Profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// copy the current manifest to a timestamped backup before replacing
	if _, statErr := os.Stat(ph.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		if cerr := copyFile(ph.ManifestPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// transactional write: temp file in the same directory, rename over target
	dir := filepath.Dir(ph.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(ph.ManifestPath); err == nil {
		_ = os.Remove(ph.ManifestPath)
	}
	if rerr := os.Rename(temp, ph.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// AutosaveCrashSnapshot writes the in-memory profile to a crash-stamped file
// in the backups directory without touching the main manifest. Used by the
// crash handler, where the regular Save path may be part of the problem.
func AutosaveCrashSnapshot(ph *ProfileHandle) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProfileHandle")
	}
	data, err := json.MarshalIndent(ph.Profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.bak", ManifestFileName, stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*Profile, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &p, nil
}
