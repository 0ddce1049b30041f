package schema

// Table names of the legal-case star schema.
const (
	TablePessoa     = "dim_pessoa"
	TableAdvogado   = "dim_advogado"
	TableJuiz       = "dim_juiz"
	TableCalendario = "d_calendario"
	TableProcessos  = "fato_processos"
)

// StarSchema returns the built-in contracts in processing order: every
// dimension comes before the fact table that references it.
func StarSchema() []Contract {
	return []Contract{
		{
			Name: TablePessoa,
			Fields: []Field{
				{Name: "id_pessoa", Type: KindInt, Required: true},
				{Name: "nome", Type: KindText, Required: true},
				{Name: "papel", Type: KindText, Required: true, Enum: []string{"autor", "reu"}},
				{Name: "data_nascimento", Type: KindDate},
				{Name: "cpf", Type: KindText},
				{Name: "endereco", Type: KindText},
				{Name: "cidade", Type: KindText},
				{Name: "estado", Type: KindText},
			},
			KeyColumns: []string{"id_pessoa"},
			Defaults: map[string]string{
				"cpf":      "000.000.000-00",
				"endereco": "Endereço não informado",
				"cidade":   "Cidade não informada",
				"estado":   "XX",
			},
		},
		{
			Name: TableAdvogado,
			Fields: []Field{
				{Name: "id_advogado", Type: KindInt, Required: true},
				{Name: "nome", Type: KindText, Required: true},
				{Name: "oab", Type: KindText, Required: true},
			},
			KeyColumns: []string{"id_advogado"},
		},
		{
			Name: TableJuiz,
			Fields: []Field{
				{Name: "id_juiz", Type: KindInt, Required: true},
				{Name: "nome", Type: KindText, Required: true},
				{Name: "vara", Type: KindText, Required: true},
			},
			KeyColumns: []string{"id_juiz"},
		},
		{
			Name: TableCalendario,
			Fields: []Field{
				{Name: "id_data", Type: KindInt, Required: true},
				{Name: "data", Type: KindDate, Required: true},
				{Name: "ano", Type: KindInt},
				{Name: "mes", Type: KindInt},
				{Name: "dia", Type: KindInt},
				{Name: "trimestre", Type: KindInt},
				{Name: "nome_mes", Type: KindText},
				{Name: "dia_semana", Type: KindText},
			},
			KeyColumns: []string{"id_data"},
		},
		{
			Name: TableProcessos,
			Fields: []Field{
				{Name: "numero_processo", Type: KindText, Required: true},
				{Name: "id_pessoa", Type: KindInt, Required: true},
				{Name: "id_advogado", Type: KindInt, Required: true},
				{Name: "id_juiz", Type: KindInt, Required: true},
				{Name: "id_data", Type: KindInt, Required: true},
				{Name: "resultado", Type: KindText},
				{Name: "valor_causa", Type: KindMoney},
				{Name: "conciliacao", Type: KindBool},
				{Name: "data_abertura", Type: KindTimestamp},
				{Name: "data_encerramento", Type: KindTimestamp},
			},
			KeyColumns: []string{"numero_processo"},
			References: []Reference{
				{Column: "id_pessoa", Table: TablePessoa, Key: "id_pessoa"},
				{Column: "id_advogado", Table: TableAdvogado, Key: "id_advogado"},
				{Column: "id_juiz", Table: TableJuiz, Key: "id_juiz"},
				{Column: "id_data", Table: TableCalendario, Key: "id_data"},
			},
			Defaults: map[string]string{
				"resultado":   "Não informado",
				"valor_causa": "0",
				"conciliacao": "false",
			},
		},
	}
}

// Builtin returns the built-in contract for name.
func Builtin(name string) (Contract, bool) {
	for _, c := range StarSchema() {
		if c.Name == name {
			return c, true
		}
	}
	return Contract{}, false
}
