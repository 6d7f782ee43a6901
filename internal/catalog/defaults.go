package catalog

import "declbot/internal/domain"

// DefaultEntries is the built-in product table.
var DefaultEntries = []domain.CatalogEntry{
	{Name: "томаты", CustomsCode: "0702 00 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "огурцы", CustomsCode: "0707 00 190 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "картофель", CustomsCode: "0701 90 500 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "лук", CustomsCode: "0703 10 190 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "чеснок", CustomsCode: "0703 20 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "капуста", CustomsCode: "0704 90 100 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "брокколи", CustomsCode: "0704 10 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "морковь", CustomsCode: "0706 10 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "свекла", CustomsCode: "0706 20 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "редис", CustomsCode: "0706 90 900 2", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "петрушка", CustomsCode: "0706 90 900 1", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "укроп", CustomsCode: "0706 90 900 3", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "шпинат", CustomsCode: "0710 30 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "кабачки", CustomsCode: "0709 90 900 1", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "баклажаны", CustomsCode: "0709 30 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "перец", CustomsCode: "0709 60 100 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "яблоки", CustomsCode: "0808 10 800 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "груши", CustomsCode: "0808 30 900 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "абрикосы", CustomsCode: "0809 10 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "черешня", CustomsCode: "0809 29 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "персики", CustomsCode: "0809 30 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "сливы", CustomsCode: "0809 40 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "нектарины", CustomsCode: "0809 30 100 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "гранаты", CustomsCode: "0810 90 500 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "хурма", CustomsCode: "0810 70 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "виноград", CustomsCode: "0806 10 100 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "мандарины", CustomsCode: "0805 20 100 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "апельсины", CustomsCode: "0805 10 200 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "лимоны", CustomsCode: "0805 50 100 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "бананы", CustomsCode: "0803 90 100 0", CertificationRequired: true, OriginCertificateAvailable: false},
	{Name: "киви", CustomsCode: "0810 50 000 0", CertificationRequired: true, OriginCertificateAvailable: false},
	{Name: "финики", CustomsCode: "0804 10 000 0", CertificationRequired: true, OriginCertificateAvailable: false},
	{Name: "инжир", CustomsCode: "0804 20 100 0", CertificationRequired: true, OriginCertificateAvailable: false},
	{Name: "арбузы", CustomsCode: "0807 11 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
	{Name: "дыни", CustomsCode: "0807 19 000 0", CertificationRequired: true, OriginCertificateAvailable: true},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return MustNew(DefaultEntries)
}
