package ontology

// defaultSkills returns the built-in canonical skill table so the service
// can run without an external vocabulary file.
func defaultSkills() map[string]string {
	return map[string]string{
		"agile":                       "Agile",
		"angular":                     "Angular",
		"ansible":                     "Ansible",
		"apache_kafka":                "Apache Kafka",
		"apache_spark":                "Apache Spark",
		"aws":                         "AWS",
		"aws_lambda":                  "AWS Lambda",
		"aws_s3":                      "AWS S3",
		"azure":                       "Azure",
		"cassandra":                   "Cassandra",
		"ci_cd":                       "CI/CD",
		"cplusplus":                   "C++",
		"csharp":                      "C#",
		"css3":                        "CSS3",
		"data_analysis":               "Data Analysis",
		"data_visualization":          "Data Visualization",
		"deep_learning":               "Deep Learning",
		"django":                      "Django",
		"docker":                      "Docker",
		"elasticsearch":               "Elasticsearch",
		"express_js":                  "Express.js",
		"fastapi":                     "FastAPI",
		"flask":                       "Flask",
		"flutter":                     "Flutter",
		"git":                         "Git",
		"go":                          "Go",
		"google_cloud_platform":       "Google Cloud Platform",
		"grafana":                     "Grafana",
		"graphql":                     "GraphQL",
		"grpc":                        "gRPC",
		"html5":                       "HTML5",
		"java":                        "Java",
		"javascript":                  "JavaScript",
		"jenkins":                     "Jenkins",
		"kotlin":                      "Kotlin",
		"kubernetes":                  "Kubernetes",
		"linux":                       "Linux",
		"machine_learning":            "Machine Learning",
		"matlab":                      "MATLAB",
		"microservices":               "Microservices",
		"mongodb":                     "MongoDB",
		"mysql":                       "MySQL",
		"natural_language_processing": "Natural Language Processing",
		"next_js":                     "Next.js",
		"node_js":                     "Node.js",
		"numpy":                       "NumPy",
		"pandas":                      "Pandas",
		"php":                         "PHP",
		"postgresql":                  "PostgreSQL",
		"prometheus":                  "Prometheus",
		"python":                      "Python",
		"pytorch":                     "PyTorch",
		"r":                           "R",
		"react":                       "React",
		"react_native":                "React Native",
		"redis":                       "Redis",
		"rest_api":                    "REST API",
		"ruby":                        "Ruby",
		"ruby_on_rails":               "Ruby on Rails",
		"rust":                        "Rust",
		"scala":                       "Scala",
		"scikit_learn":                "scikit-learn",
		"scrum":                       "Scrum",
		"spring_boot":                 "Spring Boot",
		"sql":                         "SQL",
		"swift":                       "Swift",
		"tensorflow":                  "TensorFlow",
		"terraform":                   "Terraform",
		"typescript":                  "TypeScript",
		"vue_js":                      "Vue.js",
	}
}

// defaultAliases returns built-in alias spellings keyed by canonical key.
// Alias spellings are stored lowercased.
func defaultAliases() map[string][]string {
	return map[string][]string{
		"aws":                         {"amazon web services", "amazon aws"},
		"azure":                       {"microsoft azure", "ms azure"},
		"ci_cd":                       {"ci/cd", "cicd", "continuous integration", "continuous deployment"},
		"cplusplus":                   {"c++", "cpp", "c plus plus"},
		"csharp":                      {"c#", "c sharp", ".net"},
		"deep_learning":               {"dl", "deep-learning"},
		"express_js":                  {"expressjs", "express.js", "express"},
		"google_cloud_platform":       {"gcp", "google cloud"},
		"javascript":                  {"js", "ecmascript", "es6", "es2015", "es2020"},
		"kubernetes":                  {"k8s", "k8"},
		"machine_learning":            {"ml", "machine-learning", "machinelearning"},
		"mongodb":                     {"mongo", "mongo db"},
		"mysql":                       {"my sql"},
		"natural_language_processing": {"nlp", "natural language processing"},
		"next_js":                     {"nextjs", "next.js"},
		"node_js":                     {"nodejs", "node.js", "node"},
		"postgresql":                  {"postgres", "psql"},
		"python":                      {"py", "python3", "python2"},
		"react":                       {"reactjs", "react.js"},
		"rest_api":                    {"rest", "restful api", "restful"},
		"ruby_on_rails":               {"rails", "ror"},
		"scikit_learn":                {"sklearn", "scikit learn"},
		"tensorflow":                  {"tf", "tensor-flow"},
		"typescript":                  {"ts"},
		"vue_js":                      {"vuejs", "vue.js", "vue"},
	}
}

// defaultCategories groups canonical keys for reporting.
func defaultCategories() map[string][]string {
	return map[string][]string{
		"programming_languages": {
			"cplusplus", "csharp", "go", "java", "javascript", "kotlin",
			"php", "python", "r", "ruby", "rust", "scala", "swift", "typescript",
		},
		"frameworks": {
			"angular", "django", "express_js", "fastapi", "flask", "flutter",
			"next_js", "node_js", "react", "react_native", "ruby_on_rails",
			"spring_boot", "vue_js",
		},
		"data_science": {
			"data_analysis", "data_visualization", "deep_learning",
			"machine_learning", "natural_language_processing", "numpy",
			"pandas", "pytorch", "scikit_learn", "tensorflow",
		},
		"cloud_platforms": {"aws", "aws_lambda", "aws_s3", "azure", "google_cloud_platform"},
		"databases": {
			"cassandra", "elasticsearch", "mongodb", "mysql", "postgresql",
			"redis", "sql",
		},
		"devops": {
			"ansible", "ci_cd", "docker", "grafana", "jenkins", "kubernetes",
			"linux", "prometheus", "terraform",
		},
		"practices": {"agile", "microservices", "scrum"},
		"web": {"css3", "graphql", "grpc", "html5", "rest_api"},
	}
}
