package domain

// DefaultPlantAssets lists every asset label that can be pre-selected when a
// plant is created. Work-order asset selections must come from the owning
// plant's subset of this catalog.
var DefaultPlantAssets = []string{
	"Albedômetro", "Anemômetro", "Barramento", "Bucha plug-in \"botinha\"", "Cabo CA", "Cabo CC",
	"Cabo comunicação", "CFTV", "Chave seccionadora skid", "Combiner box", "Comunicação",
	"Controlador de carga estação solarimétrica", "Conversor", "Data logger", "Disjuntor BT",
	"Disjuntor geral MT", "Disjuntor MT", "Elo fusível", "Estação solarimétrica", "Exaustor",
	"Fonte capacitiva", "Fonte chaveada 12/24v", "Fonte CC", "Inversor", "Logger", "MC4", "Módulo",
	"Módulo fotovoltaico", "Mufla", "NCU", "No-break", "Para-raio", "Piranômetro", "QGBT", "Relé",
	"Relé de proteção", "Relé de temperatura", "Religador automático", "RSU", "Sensor de temperatura",
	"Sala O&M", "Câmera", "DVR", "Computador", "Sensor de temperatura ambiente", "Sensor de temperatura modulo",
	"Sensor termo-higrômetro", "SKC", "Smartlogger", "String", "Stringbox", "Switch", "TC concessionária",
	"TC proteção", "TCU", "Torneira", "TP concessionária", "TP de serviços auxiliares", "TP proteção",
	"Tracker", "Transformador", "TSA", "UFV", "Usina", "Ventilação forçada",
}

// OSActivities lists the activities a work order can be opened for.
var OSActivities = []string{
	"Acompanhamento concessionária", "Comissionamento", "Inspeção", "Inspeção anual",
	"Inspeção mensal", "Inspeção semestral", "Instalação de equipamento", "Limpeza",
	"Manutenção corretiva", "Manutenção preditiva", "Manutenção preventiva", "Religamento",
	"Religamento DJBT", "Religamento DJMT", "Religamento QGBT", "Religamento à vazio",
	"Teste de curva IV", "Testes", "Testes de religamento remoto", "Troca de equipamento",
}

// ValidActivity reports whether the activity belongs to the catalog.
func ValidActivity(activity string) bool {
	for _, a := range OSActivities {
		if a == activity {
			return true
		}
	}
	return false
}
