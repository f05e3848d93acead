package guides

// TopicGuide is a curated review guide for one syllabus topic, loaded from
// YAML. Guides are keyed by the subject they belong to.
type TopicGuide struct {
	Name       string          `yaml:"name"`
	Summary    string          `yaml:"summary"`
	Objectives []string        `yaml:"objectives"`
	StudyTips  []string        `yaml:"study_tips"`
	Subtopics  []SubtopicGuide `yaml:"subtopics"`
	Resources  []string        `yaml:"resources"`
}

// SubtopicGuide is a curated review guide for one subtopic.
type SubtopicGuide struct {
	Name          string   `yaml:"name"`
	Summary       string   `yaml:"summary"`
	KeyPoints     []string `yaml:"key_points"`
	PracticeIdeas []string `yaml:"practice_ideas"`
	Resources     []string `yaml:"resources"`
}

// subjectFile is the on-disk shape: one YAML file per subject.
type subjectFile struct {
	Subject string       `yaml:"subject"`
	Topics  []TopicGuide `yaml:"topics"`
}
