package regression

import (
	"fmt"

	"go.uber.org/zap"
)

// Options controls the train/test split
type Options struct {
	TestSize float64
	Seed     int64
}

// DefaultOptions holds a 20% test set with seed 42
var DefaultOptions = Options{TestSize: 0.2, Seed: 42}

// Evaluation holds the held-out results of one training run
type Evaluation struct {
	Target       string    `json:"target"`
	Features     []string  `json:"features"`
	TrainSize    int       `json:"train_size"`
	TestSize     int       `json:"test_size"`
	MSE          float64   `json:"mse"`
	R2           *float64  `json:"r2,omitempty"`
	Coefficients []float64 `json:"coefficients"` // in standardized feature units
	Intercept    float64   `json:"intercept"`
	Rank         int       `json:"rank"`
	YTest        []float64 `json:"-"`
	YPred        []float64 `json:"-"`
}

// TrainAndEvaluate splits ds, standardizes features on the training rows
// only, fits ordinary least squares and scores it on the test rows.
func TrainAndEvaluate(ds *Dataset, opts Options, logger *zap.Logger) (*Evaluation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ds == nil || ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if len(ds.Features) == 0 {
		return nil, ErrNoFeatures
	}

	trainIdx, testIdx, err := TrainTestSplit(ds.Len(), opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}

	cols := len(ds.Features)
	xTrain := rowsMatrix(ds.X, trainIdx, cols)
	xTest := rowsMatrix(ds.X, testIdx, cols)
	yTrain := pick(ds.Y, trainIdx)
	yTest := pick(ds.Y, testIdx)

	var scaler StandardScaler
	xTrainScaled, err := scaler.FitTransform(xTrain)
	if err != nil {
		return nil, fmt.Errorf("failed to scale training features: %w", err)
	}
	xTestScaled, err := scaler.Transform(xTest)
	if err != nil {
		return nil, fmt.Errorf("failed to scale test features: %w", err)
	}

	var lr LinearRegression
	if err := lr.Fit(xTrainScaled, yTrain); err != nil {
		return nil, fmt.Errorf("failed to fit linear model: %w", err)
	}
	if lr.Rank < cols {
		logger.Warn("Feature matrix is rank deficient; using minimum-norm solution",
			zap.Int("rank", lr.Rank),
			zap.Int("features", cols))
	}

	yPred, err := lr.Predict(xTestScaled)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	mse, err := MeanSquaredError(yTest, yPred)
	if err != nil {
		return nil, err
	}

	ev := &Evaluation{
		Target:       ds.Target,
		Features:     ds.Features,
		TrainSize:    len(trainIdx),
		TestSize:     len(testIdx),
		MSE:          mse,
		Coefficients: lr.Coef,
		Intercept:    lr.Intercept,
		Rank:         lr.Rank,
		YTest:        yTest,
		YPred:        yPred,
	}
	if r2, ok := R2Score(yTest, yPred); ok {
		ev.R2 = &r2
	}

	fields := []zap.Field{
		zap.Int("train_rows", ev.TrainSize),
		zap.Int("test_rows", ev.TestSize),
		zap.Float64("mse", ev.MSE),
	}
	if ev.R2 != nil {
		fields = append(fields, zap.Float64("r2", *ev.R2))
	}
	logger.Info("Model evaluated", fields...)

	return ev, nil
}
