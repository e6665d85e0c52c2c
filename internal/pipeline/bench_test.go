package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/cdash/internal/model"
)

func syntheticRows(tasks, subsPerTask int) []model.Row {
	statuses := model.Statuses
	rows := make([]model.Row, 0, tasks*(subsPerTask+1))
	for i := 0; i < tasks; i++ {
		key := fmt.Sprintf("OBR-%d", i)
		rows = append(rows, task(key,
			fmt.Sprintf("Categoria %d", i%7),
			fmt.Sprintf("Escola %d", i%40),
			statuses[i%len(statuses)],
			int64(100000+i*37), int64(i*11)))
		for j := 0; j < subsPerTask; j++ {
			rows = append(rows, subtask(fmt.Sprintf("%s-%d", key, j), key, statuses[(i+j)%len(statuses)]))
		}
	}
	return rows
}

func BenchmarkBuild(b *testing.B) {
	rows := syntheticRows(2000, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Build(rows, DefaultTopSchools)
	}
}

func BenchmarkFilterQuery(b *testing.B) {
	rows := syntheticRows(2000, 4)
	c := Criteria{Query: "escola 3"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Filter(rows, c)
	}
}
