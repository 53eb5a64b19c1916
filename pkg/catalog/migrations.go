package catalog

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE image_record(
			id INTEGER PRIMARY KEY,
			image_id INT NOT NULL,
			base TEXT NOT NULL,
			image_path TEXT NOT NULL,
			annotation_path TEXT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			ranking_score REAL NOT NULL,
			character_count INT NOT NULL,
			player_count INT NOT NULL,
			hashtags BLOB,
			attr_coverage BLOB,
			source_url TEXT NOT NULL,
			scanned_at INT NOT NULL
		);
		CREATE UNIQUE INDEX idx_image_record_base ON image_record(base);
		CREATE INDEX idx_image_record_ranking_score ON image_record(ranking_score);
	`))

	return migs
}
