// Package storage provides file-based persistence for tour-date snapshots.
//
// Each subject's last seen listing lives in its own JSON file inside the data
// directory, so a subject that fails to fetch keeps its previous snapshot
// untouched. Files are replaced atomically with a rename.
package storage
