// Package evaluation compares the collaborative models on a seeded hold-out
// split of the interaction records and scores them with RMSE and MAE.
package evaluation

import (
	"fmt"
	"math"
	"math/rand"

	"peermatch/internal/collab"
	"peermatch/internal/domain"
	"peermatch/internal/interaction"
)

// Split partitions the observed records into train and test subsets. The
// record order from Records() is deterministic and the shuffle is seeded, so
// the same seed and matrix always yield the same partition. splitRatio is
// the train fraction.
func Split(matrix domain.InteractionMatrix, splitRatio float64, seed int64) (train, test []domain.InteractionRecord, err error) {
	if splitRatio <= 0 || splitRatio >= 1 {
		return nil, nil, fmt.Errorf("split ratio %v out of (0,1)", splitRatio)
	}
	records := matrix.Records()
	shuffled := append([]domain.InteractionRecord(nil), records...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	nTrain := int(float64(len(shuffled)) * splitRatio)
	train = shuffled[:nTrain]
	test = shuffled[nTrain:]
	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("hold-out split of %d records: %w", len(records), domain.ErrInsufficientData)
	}
	return train, test, nil
}

// Evaluate fits the model on the train subset and scores it on the test
// subset. Both metrics are means over the test records of the model's
// prediction error against the recorded true strength.
func Evaluate(model domain.Model, train, test []domain.InteractionRecord) (domain.EvaluationResult, error) {
	if len(test) == 0 {
		return domain.EvaluationResult{}, fmt.Errorf("empty test subset: %w", domain.ErrInsufficientData)
	}
	trainMatrix := interaction.FromRecords(train)
	if err := model.Fit(trainMatrix); err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("fitting %s: %w", model.Name(), err)
	}
	var sumSq, sumAbs float64
	for _, r := range test {
		diff := model.Predict(r.Pair.A, r.Pair.B) - r.Strength
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
	}
	n := float64(len(test))
	return domain.EvaluationResult{
		Model:      model.Name(),
		RMSE:       math.Sqrt(sumSq / n),
		MAE:        sumAbs / n,
		TrainCount: len(train),
		TestCount:  len(test),
	}, nil
}

// Compare runs the full protocol: split once, fit and score every variant on
// the same partition, and pick the winner by lower RMSE with MAE as
// tie-break.
func Compare(matrix domain.InteractionMatrix, params collab.Params, splitRatio float64, seed int64) (domain.ComparisonReport, error) {
	train, test, err := Split(matrix, splitRatio, seed)
	if err != nil {
		return domain.ComparisonReport{}, err
	}
	var report domain.ComparisonReport
	for _, v := range collab.Variants() {
		model, err := collab.NewModel(v, params)
		if err != nil {
			return domain.ComparisonReport{}, err
		}
		result, err := Evaluate(model, train, test)
		if err != nil {
			return domain.ComparisonReport{}, err
		}
		report.Results = append(report.Results, result)
	}
	report.Winner = pickWinner(report.Results)
	return report, nil
}

func pickWinner(results []domain.EvaluationResult) string {
	if len(results) == 0 {
		return ""
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.RMSE < best.RMSE || (r.RMSE == best.RMSE && r.MAE < best.MAE) {
			best = r
		}
	}
	return best.Model
}
