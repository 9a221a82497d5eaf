package processing

import "github.com/spacesedan/textflow/internal/models"

// Sample texts used by the demo, mostly about public health in Peru.
var (
	sentimentSamples = []string{
		"Existe una necesidad de mejorar la calidad de vida de los ciudadanos de las áreas rurales del Perú a través de la tecnología.",
	}

	opinionSamples = []models.Document{
		{ID: "1", Text: "El servicio fue demasiado rápido, no vale lo que pagué."},
		{ID: "2", Text: "La aplicación tiene muchas funciones, pero es fácil de usar."},
		{ID: "3", Text: "Las llamadas deberían hacerse desde la aplicación y no desde Zoom o Google Meet."},
	}

	healthSamples = []string{
		"El incremento en los índices de sobrepeso y obesidad en el Perú es alarmante, según el Instituto Nacional de Estadística e Informática (INEI).",
		"Sólo en junio de 2020, el Ministerio de Salud alertaba que el 85% de las muertes por COVID-19 hasta esa fecha fueron de personas con obesidad.",
		"En este sentido, hablamos de una crisis de salud alimentaria que afecta a toda la población, con incidencia en las áreas urbanas.",
	}

	languageSamples = []string{
		"Este es un documento escrito en español.",
		"This is a document written in English.",
		"Isto é um documento escrito em português.",
	}
)

// Task is one operation of the demo.
type Task struct {
	Kind      models.Kind
	Documents []models.Document
	Options   models.Options
}

// DefaultTasks returns the six demo operations. lang is the batch default
// language; language detection runs without a country hint.
func DefaultTasks(lang, modelVersion string) []Task {
	opts := models.Options{Language: lang, ModelVersion: modelVersion}

	opinionDocs := make([]models.Document, len(opinionSamples))
	for i, doc := range opinionSamples {
		doc.Language = lang
		opinionDocs[i] = doc
	}

	return []Task{
		{Kind: models.KindSentiment, Documents: fromTexts(sentimentSamples), Options: opts},
		{Kind: models.KindOpinionMining, Documents: opinionDocs, Options: withOpinions(opts)},
		{Kind: models.KindEntities, Documents: fromTexts(healthSamples), Options: opts},
		{Kind: models.KindLinkedEntities, Documents: fromTexts(healthSamples), Options: opts},
		{Kind: models.KindLanguage, Documents: fromTexts(languageSamples), Options: models.Options{CountryHint: "none", ModelVersion: modelVersion}},
		{Kind: models.KindKeyPhrases, Documents: fromTexts(healthSamples), Options: opts},
	}
}

// FilterTasks keeps the tasks whose kind is listed. An empty list keeps all.
func FilterTasks(tasks []Task, kinds []models.Kind) []Task {
	if len(kinds) == 0 {
		return tasks
	}
	wanted := make(map[models.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		wanted[k] = struct{}{}
	}
	out := make([]Task, 0, len(kinds))
	for _, t := range tasks {
		if _, ok := wanted[t.Kind]; ok {
			out = append(out, t)
		}
	}
	return out
}

func fromTexts(texts []string) []models.Document {
	docs := make([]models.Document, len(texts))
	for i, text := range texts {
		docs[i] = models.Document{Text: text}
	}
	return docs
}

func withOpinions(opts models.Options) models.Options {
	opts.IncludeOpinionMining = true
	return opts
}
