package migrations

import (
	_ "embed"
)

//go:embed 0002_create_quiz_results.sql
var createQuizResultsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createQuizResultsSQL),
		execSQL(`DROP TABLE IF EXISTS quiz_results`),
	)
}
