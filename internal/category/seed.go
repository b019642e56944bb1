package category

import (
	"time"

	"normas/internal/model"
)

type seed struct {
	id, title, description string
	category               model.Category
	updated                string
}

var samples = []seed{
	{"me-001", "NR-10 - Segurança em Instalações Elétricas", "Normas de segurança para trabalhos em instalações elétricas", model.CategoryElectrical, "2024-01-15"},
	{"me-002", "Procedimento de Montagem de Painéis Elétricos", "Guia completo para montagem de painéis elétricos industriais", model.CategoryElectrical, "2024-02-10"},
	{"me-003", "Checklist de Inspeção Elétrica", "Lista de verificação para inspeção de instalações elétricas", model.CategoryElectrical, "2024-01-28"},
	{"me-004", "Padrões de Cabeamento Industrial", "Diretrizes para organização e identificação de cabos", model.CategoryElectrical, "2024-03-05"},
	{"mm-001", "Torques de Aperto - Parafusos e Porcas", "Tabela de torques recomendados para fixações mecânicas", model.CategoryMechanical, "2024-01-20"},
	{"mm-002", "Montagem de Motores Elétricos", "Procedimento padrão para montagem e alinhamento de motores", model.CategoryMechanical, "2024-02-15"},
	{"mm-003", "Inspeção de Rolamentos", "Técnicas de inspeção e critérios de aceitação", model.CategoryMechanical, "2024-01-18"},
	{"mm-004", "Balanceamento de Rotores", "Normas e procedimentos para balanceamento dinâmico", model.CategoryMechanical, "2024-03-01"},
	{"pr-001", "Fluxo de Produção - Linha A", "Mapeamento completo do processo produtivo", model.CategoryProcess, "2024-02-20"},
	{"pr-002", "Controle de Qualidade - Inspeção Final", "Procedimentos de inspeção e critérios de aprovação", model.CategoryProcess, "2024-02-25"},
	{"pr-003", "Procedimento de Embalagem e Expedição", "Normas para embalagem e preparação para envio", model.CategoryProcess, "2024-01-30"},
	{"pr-004", "Gestão de Não Conformidades", "Tratamento e registro de produtos não conformes", model.CategoryProcess, "2024-03-08"},
	{"apt-001", "APT - Trabalho em Altura", "Análise Preliminar de Tarefa para trabalhos acima de 2m", model.CategorySafetyAnalysis, "2024-01-25"},
	{"apt-002", "APT - Espaço Confinado", "Procedimentos de segurança para entrada em espaços confinados", model.CategorySafetyAnalysis, "2024-02-05"},
	{"apt-003", "APT - Movimentação de Cargas", "Segurança na operação de pontes rolantes e talhas", model.CategorySafetyAnalysis, "2024-02-12"},
	{"apt-004", "APT - Máquinas e Equipamentos", "Análise de riscos na operação de máquinas industriais", model.CategorySafetyAnalysis, "2024-03-10"},
}

// SeedDocuments returns the sample catalogue used to populate an empty development store.
func SeedDocuments() []model.Document {
	out := make([]model.Document, 0, len(samples))
	for _, s := range samples {
		ts, _ := time.Parse(time.DateOnly, s.updated)
		out = append(out, model.Document{
			ID:          s.id,
			Title:       s.title,
			Category:    s.category,
			Description: s.description,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		})
	}
	return out
}
