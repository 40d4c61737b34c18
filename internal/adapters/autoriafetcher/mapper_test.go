package autoriafetcher

import (
	"context"
	"testing"
	"time"

	"autoria-parser-service/internal/constants"
	"autoria-parser-service/internal/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullAdPage = `<!DOCTYPE html>
<html><body>
<h1 class="head">Audi A6 2015</h1>
<div class="price_value"><strong>24 200 €</strong></div>
<div class="base-information bold">95 тис. км</div>
<div class="seller_info_name bold">олександр</div>
<span class="label-vin">WAUZZZ4G1FN000000</span>
<span class="state-num ua">AA 1234 BB <span class="help">Ми розпізнали держномер</span></span>
<div class="phones_item"><span class="phone bold">прихований</span></div>
<div class="phones_item"><span class="phone bold">(067) 123 45 67</span></div>
<div class="photo-620x465"><picture><source srcset="https://cdn.riastatic.com/photos/1f.webp"></picture></div>
<div class="photo-620x465"><picture><source src="https://cdn.riastatic.com/photos/2f.webp"></picture></div>
<div class="photo-620x465"><picture><source data-src="https://cdn.riastatic.com/photos/3f.webp"></picture></div>
</body></html>`

const bareAdPage = `<!DOCTYPE html>
<html><body>
<h1 class="head">ВАЗ 2106</h1>
</body></html>`

const noTitlePage = `<!DOCTYPE html>
<html><body>
<div class="price_value"><strong>1 500 $</strong></div>
</body></html>`

func TestToDomainRecordFullPage(t *testing.T) {
	logger := contextkeys.LoggerFromContext(context.Background())

	record, err := toDomainRecord([]byte(fullAdPage), "https://auto.ria.com/uk/auto_audi_a6_1.html", logger)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "https://auto.ria.com/uk/auto_audi_a6_1.html", record.URL)
	assert.Equal(t, "Audi A6 2015", record.Title)
	assert.Equal(t, 26620, record.PriceUSD)
	assert.Equal(t, 95000, record.OdometerKm)
	// имя продавца сохраняется без изменения регистра, как на странице
	assert.Equal(t, "олександр", record.SellerName)
	assert.Equal(t, "WAUZZZ4G1FN000000", record.CarVIN)
	// только первый текстовый узел, без вложенной подсказки
	assert.Equal(t, "AA 1234 BB", record.CarNumber)
	// первый непустой канонизированный номер
	assert.Equal(t, "+380671234567", record.PhoneNumber)
	assert.Equal(t, "https://cdn.riastatic.com/photos/1f.webp", record.ImageURL)
	assert.Equal(t, 3, record.ImagesCount)

	assert.False(t, record.FoundAt.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), record.FoundAt, 5*time.Second)
}

func TestToDomainRecordDefaults(t *testing.T) {
	logger := contextkeys.LoggerFromContext(context.Background())

	record, err := toDomainRecord([]byte(bareAdPage), "https://auto.ria.com/uk/auto_vaz_2106_2.html", logger)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "ВАЗ 2106", record.Title)
	assert.Equal(t, 0, record.PriceUSD)
	assert.Equal(t, 0, record.OdometerKm)
	assert.Equal(t, constants.UnknownSellerName, record.SellerName)
	assert.Equal(t, "", record.PhoneNumber)
	assert.Equal(t, "", record.ImageURL)
	assert.Equal(t, 0, record.ImagesCount)
	assert.Equal(t, "", record.CarVIN)
	assert.Equal(t, "", record.CarNumber)
}

func TestToDomainRecordRequiresTitle(t *testing.T) {
	logger := contextkeys.LoggerFromContext(context.Background())

	record, err := toDomainRecord([]byte(noTitlePage), "https://auto.ria.com/uk/auto_unknown_3.html", logger)
	require.Error(t, err)
	assert.Nil(t, record)
	assert.Contains(t, err.Error(), constants.SelectorTitle)
}
