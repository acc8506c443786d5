package assessments

import (
	"context"
	"io/ioutil"
	"os"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Assessments []api.AssessmentTransport `yaml:"assessments"`
}

// LoadSeed reads the assessment templates of a yaml seed file.
func LoadSeed(path string) ([]api.AssessmentTransport, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed := seedFile{}
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return nil, errors.Wrap(err, "failed to parse assessment seed")
	}
	return seed.Assessments, nil
}

// Seed creates the templates of the seed file when no assessment exists yet. It returns how many were created.
func (c *AssessmentService) Seed(ctx context.Context, path string) (int, error) {
	count, err := c.Store.CountAssessments(nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count assessments")
	}
	if count > 0 {
		c.Logger.Debug(ctx, "assessments already present, seed skipped", "count", count)
		return 0, nil
	}

	templates, err := LoadSeed(path)
	if os.IsNotExist(errors.Cause(err)) {
		c.Logger.Warn(ctx, "no assessment seed file", "path", path)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	created := 0
	for _, template := range templates {
		if _, err := c.AddAssessment(ctx, template); err != nil {
			return created, errors.Wrapf(err, "failed to seed assessment %s", template.Level)
		}
		created++
	}
	c.Logger.Info(ctx, "assessments seeded", "count", created)
	return created, nil
}
